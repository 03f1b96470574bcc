package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/houserent/jobs"
	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OfferService covers vendor counter-offers and the traveler's answer to them.
type OfferService struct {
	orders      repository.OrderStore
	offers      repository.OfferStore
	notifier    Notifier
	scheduler   jobs.Scheduler
	log         *logrus.Logger
	expiryDelay time.Duration
	now         func() time.Time
}

func NewOfferService(orders repository.OrderStore, offers repository.OfferStore, notifier Notifier, scheduler jobs.Scheduler, expiryDelay time.Duration, log *logrus.Logger) *OfferService {
	return &OfferService{
		orders:      orders,
		offers:      offers,
		notifier:    notifier,
		scheduler:   scheduler,
		log:         log,
		expiryDelay: expiryDelay,
		now:         time.Now,
	}
}

// CreateOffer makes a counter-offer on an approved order. The price must fit
// the traveler's budget; a rejected offer leaves no trace, not even a used
// order number.
func (s *OfferService) CreateOffer(ctx context.Context, vendorID, orderID uuid.UUID, in OfferInput) (*models.TravelOffer, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr("order", err)
	}
	if orderVendor(order) != vendorID {
		return nil, forbidden("order belongs to another vendor")
	}
	if order.IsDeleted {
		return nil, notFound("order")
	}
	if in.Price <= 0 {
		return nil, validationError("invalid_price", "price must be positive")
	}
	if order.TravelDetail == nil || in.Price > order.TravelDetail.BudgetMax {
		return nil, ErrBudgetExceeded
	}
	if !order.IsApproved() {
		return nil, ErrOrderNotApproved
	}

	number, err := s.offers.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	offer := &models.TravelOffer{
		OrderID:     order.ID,
		OrderNumber: number,
		Price:       in.Price,
		Comment:     in.Comment,
		ExpiresAt:   s.now().Add(s.expiryDelay),
	}
	if err := s.offers.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	offer.Order = order

	msg := notifications.Message{Type: notifications.EventOfferCreated, Payload: offer}
	claim := offerClaim(s.offers, offer.ID, repository.FlagSent)
	if _, err := s.notifier.Deliver(ctx, registry.TopicOffers, orderTraveler(order).String(), msg, claim); err != nil {
		s.log.WithError(err).WithField("offer_id", offer.ID).Warn("offer push failed")
	}

	if err := s.scheduler.Schedule(ctx, jobs.KindExpireOffer, offer.ID, s.expiryDelay); err != nil {
		s.log.WithError(err).WithField("offer_id", offer.ID).Warn("expiry job not scheduled, sweep will close the offer")
	}

	s.log.WithFields(logrus.Fields{"offer_id": offer.ID, "order_number": offer.OrderNumber}).Info("offer created")
	return offer, nil
}

func (s *OfferService) loadForTraveler(ctx context.Context, travelerID, offerID uuid.UUID) (*models.TravelOffer, error) {
	offer, err := s.offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, lookupErr("offer", err)
	}
	if offer.Order == nil || orderTraveler(offer.Order) != travelerID {
		return nil, forbidden("offer belongs to another traveler")
	}
	if offer.IsDeleted {
		return nil, notFound("offer")
	}
	return offer, nil
}

// GetOffer is visible to the traveler and the vendor of the offer.
func (s *OfferService) GetOffer(ctx context.Context, userID, offerID uuid.UUID) (*models.TravelOffer, error) {
	offer, err := s.offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, lookupErr("offer", err)
	}
	if offer.IsDeleted {
		return nil, notFound("offer")
	}
	if offer.Order == nil || (orderTraveler(offer.Order) != userID && orderVendor(offer.Order) != userID) {
		return nil, forbidden("offer belongs to another user")
	}
	return offer, nil
}

func (s *OfferService) AcceptOffer(ctx context.Context, travelerID, offerID uuid.UUID) (*models.TravelOffer, error) {
	offer, err := s.loadForTraveler(ctx, travelerID, offerID)
	if err != nil {
		return nil, err
	}
	ok, err := s.offers.AcceptOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("accept offer: %w", err)
	}
	if !ok {
		return nil, ErrOfferNotPending
	}

	accepted := true
	offer.IsAccepted = &accepted
	offer.Version++
	return offer, nil
}

func (s *OfferService) RejectOffer(ctx context.Context, travelerID, offerID uuid.UUID) error {
	if _, err := s.loadForTraveler(ctx, travelerID, offerID); err != nil {
		return err
	}
	ok, err := s.offers.CloseOffer(ctx, offerID, models.ClosedRejected)
	if err != nil {
		return fmt.Errorf("reject offer: %w", err)
	}
	if !ok {
		return ErrOfferNotPending
	}
	return nil
}

// MarkPaid records the settlement result. It only moves an accepted offer
// that has no result yet; afterwards the offer is frozen.
func (s *OfferService) MarkPaid(ctx context.Context, offerID uuid.UUID, success bool) error {
	ok, err := s.offers.SettleOffer(ctx, offerID, success)
	if err != nil {
		return fmt.Errorf("settle offer: %w", err)
	}
	if ok {
		return nil
	}

	offer, err := s.offers.GetOffer(ctx, offerID)
	if err != nil {
		return lookupErr("offer", err)
	}
	if offer.Settled() {
		return ErrOfferSettled
	}
	return ErrOfferNotAccepted
}

// ExpireOffer closes an unanswered offer and tells both sides. It reports
// false when the traveler already answered.
func (s *OfferService) ExpireOffer(ctx context.Context, offerID uuid.UUID) (bool, error) {
	ok, err := s.offers.CloseOffer(ctx, offerID, models.ClosedExpired)
	if err != nil {
		return false, fmt.Errorf("expire offer: %w", err)
	}
	if !ok {
		return false, nil
	}

	offer, err := s.offers.GetOffer(ctx, offerID)
	if err != nil {
		return true, fmt.Errorf("load expired offer: %w", err)
	}
	fields := logrus.Fields{"offer_id": offer.ID}
	msg := notifications.Message{Type: notifications.EventOfferExpired, Payload: offer.ID}

	if offer.Order != nil {
		claim := offerClaim(s.offers, offer.ID, repository.FlagExpirySent)
		if _, err := s.notifier.Deliver(ctx, registry.TopicDeletedOffers, orderTraveler(offer.Order).String(), msg, claim); err != nil {
			s.log.WithError(err).WithFields(fields).Warn("offer expiry push to traveler failed")
		}
		if _, err := s.notifier.Notify(ctx, registry.TopicDeletedOffers, orderVendor(offer.Order).String(), msg); err != nil {
			s.log.WithError(err).WithFields(fields).Warn("offer expiry push to vendor failed")
		}
	}

	s.log.WithFields(fields).Info("offer expired")
	return true, nil
}

func (s *OfferService) TravelerOffers(ctx context.Context, travelerID uuid.UUID, filter repository.OfferFilter) ([]models.TravelOffer, error) {
	offers, err := s.offers.ListTravelerOffers(ctx, travelerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list traveler offers: %w", err)
	}
	return offers, nil
}
