package repository

import (
	"context"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *GormStore) CreateTravelDetail(ctx context.Context, td *models.TravelDetail) error {
	return translate(s.db.WithContext(ctx).Create(td).Error)
}

func (s *GormStore) GetTravelDetail(ctx context.Context, id uuid.UUID) (*models.TravelDetail, error) {
	var td models.TravelDetail
	if err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&td).Error; err != nil {
		return nil, translate(err)
	}
	return &td, nil
}

func (s *GormStore) DeleteTravelDetail(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.TravelDetail{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	return res.RowsAffected == 1, res.Error
}

// CancelSearch closes the traveler's unanswered offers and pending orders,
// then drops every search without a paid offer, all in one transaction.
func (s *GormStore) CancelSearch(ctx context.Context, userID uuid.UUID) (CancelSummary, error) {
	var summary CancelSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		travels := func() *gorm.DB {
			return tx.Session(&gorm.Session{NewDB: true}).Model(&models.TravelDetail{}).Select("id").Where("user_id = ?", userID)
		}
		orders := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Order{}).Select("id").Where("travel_detail_id IN (?)", travels())

		res := tx.Model(&models.TravelOffer{}).
			Where("is_deleted = ? AND "+pendingOffer+" AND order_id IN (?)", false, orders).
			Updates(map[string]interface{}{
				"is_accepted":   false,
				"is_deleted":    true,
				"closed_reason": models.ClosedCancelled,
				"version":       gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		summary.Offers = res.RowsAffected

		res = tx.Model(&models.Order{}).
			Where("is_deleted = ? AND approved IS NULL AND travel_detail_id IN (?)", false, travels()).
			Updates(map[string]interface{}{
				"approved":      false,
				"is_deleted":    true,
				"closed_reason": models.ClosedCancelled,
				"version":       gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		summary.Orders = res.RowsAffected

		res = tx.Model(&models.TravelDetail{}).
			Where("user_id = ? AND is_deleted = ?", userID, false).
			Where(`NOT EXISTS (
				SELECT 1 FROM travel_offers
				JOIN orders ON orders.id = travel_offers.order_id
				WHERE orders.travel_detail_id = travel_details.id AND travel_offers.is_payed = true)`).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		summary.Travels = res.RowsAffected
		return nil
	})
	return summary, err
}
