package services

import (
	"context"
	"fmt"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/pricing"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type catchUpStore interface {
	WithUndeliveredOrders(ctx context.Context, vendorID uuid.UUID, flag repository.Flag, fn func([]models.Order) error) error
	WithUndeliveredOffers(ctx context.Context, travelerID uuid.UUID, flag repository.Flag, fn func([]models.TravelOffer) error) error
	WithUndeliveredTransactions(ctx context.Context, userID uuid.UUID, fn func([]models.Transaction) error) error
}

// CatchUpService resends the backlog of a topic to a freshly registered
// connection. Items are marked delivered in the same transaction as the send,
// so a failed write leaves them owed for the next connect.
type CatchUpService struct {
	store    catchUpStore
	prices   *pricing.Resolver
	notifier Notifier
	log      *logrus.Logger
}

func NewCatchUpService(store catchUpStore, prices *pricing.Resolver, notifier Notifier, log *logrus.Logger) *CatchUpService {
	return &CatchUpService{store: store, prices: prices, notifier: notifier, log: log}
}

// Replay sends everything still owed to identity on topic through handle.
func (s *CatchUpService) Replay(ctx context.Context, topic registry.Topic, identity uuid.UUID, handle string) error {
	var err error
	switch topic {
	case registry.TopicOrders:
		err = s.store.WithUndeliveredOrders(ctx, identity, repository.FlagSent, func(orders []models.Order) error {
			for i := range orders {
				s.annotate(ctx, &orders[i])
			}
			return s.send(ctx, handle, notifications.EventOrdersPending, orders)
		})
	case registry.TopicDeletedOrders:
		err = s.store.WithUndeliveredOrders(ctx, identity, repository.FlagExpirySent, func(orders []models.Order) error {
			ids := make([]uuid.UUID, len(orders))
			for i := range orders {
				ids[i] = orders[i].ID
			}
			return s.send(ctx, handle, notifications.EventOrdersExpired, ids)
		})
	case registry.TopicOffers:
		err = s.store.WithUndeliveredOffers(ctx, identity, repository.FlagSent, func(offers []models.TravelOffer) error {
			return s.send(ctx, handle, notifications.EventOffersPending, offers)
		})
	case registry.TopicDeletedOffers:
		err = s.store.WithUndeliveredOffers(ctx, identity, repository.FlagExpirySent, func(offers []models.TravelOffer) error {
			ids := make([]uuid.UUID, len(offers))
			for i := range offers {
				ids[i] = offers[i].ID
			}
			return s.send(ctx, handle, notifications.EventOffersExpired, ids)
		})
	case registry.TopicPaymentStatus:
		err = s.store.WithUndeliveredTransactions(ctx, identity, func(txs []models.Transaction) error {
			statuses := make([]PaymentStatus, len(txs))
			for i, tx := range txs {
				statuses[i] = PaymentStatus{TransactionID: tx.ID, OfferID: tx.TravelOfferID, Status: tx.Result}
			}
			return s.send(ctx, handle, notifications.EventPaymentStatus, statuses)
		})
	default:
		return validationError("unknown_topic", "unknown topic %q", topic)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"topic": topic, "identity": identity}).Warn("catch-up not delivered")
		return fmt.Errorf("catch-up %s: %w", topic, err)
	}
	return nil
}

func (s *CatchUpService) send(ctx context.Context, handle string, event notifications.Event, payload interface{}) error {
	return s.notifier.SendTo(ctx, handle, notifications.Message{Type: event, Payload: payload})
}

func (s *CatchUpService) annotate(ctx context.Context, order *models.Order) {
	if order.TravelDetail == nil {
		return
	}
	price, ok, err := s.prices.Resolve(ctx, order.MatchObjectID, order.TravelDetail.EndDate)
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("matched price unavailable")
		return
	}
	if ok {
		order.MatchedPrice = &price
	}
}
