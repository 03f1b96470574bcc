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

// OrderService drives the vendor side of an order: approve, reject, expire.
type OrderService struct {
	store    repository.OrderStore
	prices   *pricing.Resolver
	notifier Notifier
	log      *logrus.Logger
}

func NewOrderService(store repository.OrderStore, prices *pricing.Resolver, notifier Notifier, log *logrus.Logger) *OrderService {
	return &OrderService{store: store, prices: prices, notifier: notifier, log: log}
}

func (s *OrderService) loadOwned(ctx context.Context, vendorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr("order", err)
	}
	if orderVendor(order) != vendorID {
		return nil, forbidden("order belongs to another vendor")
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, vendorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOwned(ctx, vendorID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDeleted {
		return nil, notFound("order")
	}
	s.annotate(ctx, order)
	return order, nil
}

func (s *OrderService) ApproveOrder(ctx context.Context, vendorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOwned(ctx, vendorID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDeleted {
		return nil, notFound("order")
	}
	ok, err := s.store.ApproveOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("approve order: %w", err)
	}
	if !ok {
		return nil, ErrOrderNotPending
	}

	approved := true
	order.Approved = &approved
	order.Version++
	return order, nil
}

func (s *OrderService) RejectOrder(ctx context.Context, vendorID, orderID uuid.UUID) error {
	order, err := s.loadOwned(ctx, vendorID, orderID)
	if err != nil {
		return err
	}
	if order.IsDeleted {
		return notFound("order")
	}
	ok, err := s.store.CloseOrder(ctx, orderID, models.ClosedRejected)
	if err != nil {
		return fmt.Errorf("reject order: %w", err)
	}
	if !ok {
		return ErrOrderNotPending
	}
	return nil
}

// ExpireOrder closes the order if the vendor never answered and tells the
// vendor. It reports false when the order was already touched.
func (s *OrderService) ExpireOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.store.CloseOrder(ctx, orderID, models.ClosedExpired)
	if err != nil {
		return false, fmt.Errorf("expire order: %w", err)
	}
	if !ok {
		return false, nil
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return true, fmt.Errorf("load expired order: %w", err)
	}

	msg := notifications.Message{Type: notifications.EventOrderExpired, Payload: order.ID}
	claim := orderClaim(s.store, order.ID, repository.FlagExpirySent)
	if _, err := s.notifier.Deliver(ctx, registry.TopicDeletedOrders, orderVendor(order).String(), msg, claim); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("order expiry push failed")
	}

	s.log.WithField("order_id", order.ID).Info("order expired")
	return true, nil
}

// VendorOrders lists the vendor's orders in one state, pending ones with the
// price matched at the end of the stay.
func (s *OrderService) VendorOrders(ctx context.Context, vendorID uuid.UUID, status repository.OrderStatus) ([]models.Order, error) {
	orders, err := s.store.ListVendorOrders(ctx, vendorID, status)
	if err != nil {
		return nil, fmt.Errorf("list vendor orders: %w", err)
	}
	for i := range orders {
		s.annotate(ctx, &orders[i])
	}
	return orders, nil
}

func (s *OrderService) annotate(ctx context.Context, order *models.Order) {
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
