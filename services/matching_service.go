package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/houserent/jobs"
	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/pricing"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/repository"
	"github.com/sirupsen/logrus"
)

type MatchingService struct {
	store       repository.OrderStore
	prices      *pricing.Resolver
	notifier    Notifier
	scheduler   jobs.Scheduler
	log         *logrus.Logger
	expiryDelay time.Duration
	strict      bool
	now         func() time.Time
}

func NewMatchingService(store repository.OrderStore, prices *pricing.Resolver, notifier Notifier, scheduler jobs.Scheduler, expiryDelay time.Duration, strictAvailability bool, log *logrus.Logger) *MatchingService {
	return &MatchingService{
		store:       store,
		prices:      prices,
		notifier:    notifier,
		scheduler:   scheduler,
		log:         log,
		expiryDelay: expiryDelay,
		strict:      strictAvailability,
		now:         time.Now,
	}
}

// CreateMatchingOrders opens one order per listing eligible for the travel,
// pushes each to its vendor and schedules its expiry. No match is not an error.
func (s *MatchingService) CreateMatchingOrders(ctx context.Context, td *models.TravelDetail) ([]models.Order, error) {
	objects, err := s.store.FindMatchingObjects(ctx, repository.MatchCriteria{
		PlacementID:  td.PlacementID,
		ObjectKindID: td.ObjectKindID,
		ObjectTypeID: td.ObjectTypeID,
		Start:        td.StartDate,
		End:          td.EndDate,
		Strict:       s.strict,
	})
	if err != nil {
		return nil, fmt.Errorf("find matching objects: %w", err)
	}

	created := make([]models.Order, 0, len(objects))
	for i := range objects {
		obj := objects[i]
		order := &models.Order{
			TravelDetailID: td.ID,
			MatchObjectID:  obj.ID,
			ExpiresAt:      s.now().Add(s.expiryDelay),
		}
		if err := s.store.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return created, fmt.Errorf("create order for object %s: %w", obj.ID, err)
		}
		order.TravelDetail = td
		order.MatchObject = &obj
		if price, ok, err := s.prices.Resolve(ctx, obj.ID, td.EndDate); err != nil {
			s.log.WithError(err).WithField("order_id", order.ID).Warn("matched price unavailable")
		} else if ok {
			order.MatchedPrice = &price
		}

		s.push(ctx, order)

		if err := s.scheduler.Schedule(ctx, jobs.KindExpireOrder, order.ID, s.expiryDelay); err != nil {
			s.log.WithError(err).WithField("order_id", order.ID).Warn("expiry job not scheduled, sweep will close the order")
		}
		created = append(created, *order)
	}

	s.log.WithFields(logrus.Fields{"travel_id": td.ID, "matched": len(created)}).Info("matching orders created")
	return created, nil
}

func (s *MatchingService) push(ctx context.Context, order *models.Order) {
	vendor := orderVendor(order).String()
	msg := notifications.Message{Type: notifications.EventOrderCreated, Payload: order}

	_, err := s.notifier.Deliver(ctx, registry.TopicOrders, vendor, msg, orderClaim(s.store, order.ID, repository.FlagSent))
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("order push failed")
	}
}
