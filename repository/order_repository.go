package repository

import (
	"context"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FindMatchingObjects mirrors pricing.Available in SQL.
func (s *GormStore) FindMatchingObjects(ctx context.Context, c MatchCriteria) ([]models.LocationObject, error) {
	availability := "object_prices.start_date <= ? OR object_prices.end_date >= ?"
	if c.Strict {
		availability = "object_prices.start_date <= ? AND object_prices.end_date >= ?"
	}

	q := s.db.WithContext(ctx).
		Where("is_deleted = ? AND placement_id = ? AND object_kind_id = ?", false, c.PlacementID, c.ObjectKindID)
	if c.ObjectTypeID != nil {
		q = q.Where("object_type_id = ?", *c.ObjectTypeID)
	}
	q = q.Where(`EXISTS (
		SELECT 1 FROM object_prices
		WHERE object_prices.object_id = location_objects.id
		AND object_prices.is_deleted = false
		AND (`+availability+`))`, c.Start, c.End)

	var objects []models.LocationObject
	err := q.Preload("Prices", "is_deleted = ?", false).Order("created_at").Find(&objects).Error
	return objects, err
}

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return translate(s.db.WithContext(ctx).Omit("TravelDetail", "MatchObject", "Offers").Create(order).Error)
}

func (s *GormStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("TravelDetail").
		Preload("MatchObject").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) ApproveOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, &models.Order{}, id, "approved IS NULL", map[string]interface{}{
		"approved": true,
	})
}

func (s *GormStore) CloseOrder(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	return s.transition(ctx, &models.Order{}, id, "approved IS NULL", map[string]interface{}{
		"approved":      false,
		"is_deleted":    true,
		"closed_reason": reason,
	})
}

func (s *GormStore) ClaimOrderFlag(ctx context.Context, id uuid.UUID, flag Flag) (bool, error) {
	return s.setFlag(ctx, &models.Order{}, id, flag, false, true)
}

func (s *GormStore) ReleaseOrderFlag(ctx context.Context, id uuid.UUID, flag Flag) error {
	_, err := s.setFlag(ctx, &models.Order{}, id, flag, true, false)
	return err
}

func vendorOrders(db *gorm.DB, vendorID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN location_objects ON location_objects.id = orders.match_object_id").
		Where("location_objects.vendor_id = ?", vendorID)
}

func (s *GormStore) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status OrderStatus) ([]models.Order, error) {
	q := vendorOrders(s.db.WithContext(ctx), vendorID)
	switch status {
	case OrdersApproved:
		q = q.Where("orders.is_deleted = ? AND orders.approved = ?", false, true)
	case OrdersRejected:
		q = q.Where("orders.approved = ?", false)
	default:
		q = q.Where("orders.is_deleted = ? AND orders.approved IS NULL", false)
	}

	var orders []models.Order
	err := q.Preload("TravelDetail").
		Preload("MatchObject").
		Preload("Offers", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false).Order("order_number")
		}).
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *GormStore) OverdueOrders(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("is_deleted = ? AND approved IS NULL AND expires_at <= ?", false, now).
		Order("expires_at").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) WithUndeliveredOrders(ctx context.Context, vendorID uuid.UUID, flag Flag, fn func([]models.Order) error) error {
	col, err := flagColumn(flag)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := vendorOrders(tx.Clauses(skipLocked("orders")), vendorID).Where("orders."+col+" = ?", false)
		if flag == FlagExpirySent {
			q = q.Where("orders.closed_reason = ?", models.ClosedExpired)
		} else {
			q = q.Where("orders.is_deleted = ? AND orders.approved IS NULL", false)
		}

		var orders []models.Order
		if err := q.Preload("TravelDetail").Preload("MatchObject").Order("orders.created_at").Find(&orders).Error; err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}
		if err := fn(orders); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(orders))
		for i := range orders {
			ids[i] = orders[i].ID
		}
		return tx.Model(&models.Order{}).Where("id IN ?", ids).Update(col, true).Error
	})
}
