package repository

import (
	"context"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const pendingOffer = "is_accepted IS NULL AND is_payed IS NULL"

func (s *GormStore) CreateOffer(ctx context.Context, offer *models.TravelOffer) error {
	return translate(s.db.WithContext(ctx).Omit("Order").Create(offer).Error)
}

func (s *GormStore) GetOffer(ctx context.Context, id uuid.UUID) (*models.TravelOffer, error) {
	var offer models.TravelOffer
	err := s.db.WithContext(ctx).
		Preload("Order.TravelDetail").
		Preload("Order.MatchObject").
		Where("id = ?", id).
		First(&offer).Error
	if err != nil {
		return nil, translate(err)
	}
	return &offer, nil
}

func (s *GormStore) AcceptOffer(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, &models.TravelOffer{}, id, pendingOffer, map[string]interface{}{
		"is_accepted": true,
	})
}

func (s *GormStore) CloseOffer(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	return s.transition(ctx, &models.TravelOffer{}, id, pendingOffer, map[string]interface{}{
		"is_accepted":   false,
		"is_deleted":    true,
		"closed_reason": reason,
	})
}

func (s *GormStore) SettleOffer(ctx context.Context, id uuid.UUID, paid bool) (bool, error) {
	return s.transition(ctx, &models.TravelOffer{}, id, "is_payed IS NULL AND is_accepted = true", map[string]interface{}{
		"is_payed": paid,
	})
}

func (s *GormStore) UpdateOfferContact(ctx context.Context, id uuid.UUID, c Contact) error {
	res := s.db.WithContext(ctx).
		Model(&models.TravelOffer{}).
		Where("id = ? AND is_deleted = ? AND is_payed IS NULL", id, false).
		Updates(map[string]interface{}{
			"first_name":   c.FirstName,
			"last_name":    c.LastName,
			"email":        c.Email,
			"phone_number": c.PhoneNumber,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ClaimOfferFlag(ctx context.Context, id uuid.UUID, flag Flag) (bool, error) {
	return s.setFlag(ctx, &models.TravelOffer{}, id, flag, false, true)
}

func (s *GormStore) ReleaseOfferFlag(ctx context.Context, id uuid.UUID, flag Flag) error {
	_, err := s.setFlag(ctx, &models.TravelOffer{}, id, flag, true, false)
	return err
}

func travelerOffers(db *gorm.DB, travelerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN orders ON orders.id = travel_offers.order_id").
		Joins("JOIN travel_details ON travel_details.id = orders.travel_detail_id").
		Where("travel_details.user_id = ?", travelerID)
}

func (s *GormStore) ListTravelerOffers(ctx context.Context, travelerID uuid.UUID, f OfferFilter) ([]models.TravelOffer, error) {
	q := travelerOffers(s.db.WithContext(ctx), travelerID)
	switch f.Status {
	case OffersActive, OffersPast:
		q = q.Where("travel_offers.is_payed = ?", true)
		if !f.Date.IsZero() {
			op := ">="
			if f.Status == OffersPast {
				op = "<="
			}
			q = q.Where("travel_details.end_date "+op+" ?", f.Date)
		}
	default:
		q = q.Where("travel_offers.is_deleted = ? AND travel_offers.is_accepted IS NULL AND travel_offers.is_payed IS NULL", false)
	}

	var offers []models.TravelOffer
	err := q.Preload("Order.TravelDetail").
		Preload("Order.MatchObject").
		Order("travel_offers.created_at DESC").
		Find(&offers).Error
	return offers, err
}

func (s *GormStore) OverdueOffers(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.TravelOffer{}).
		Where("is_deleted = ? AND "+pendingOffer+" AND expires_at <= ?", false, now).
		Order("expires_at").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) WithUndeliveredOffers(ctx context.Context, travelerID uuid.UUID, flag Flag, fn func([]models.TravelOffer) error) error {
	col, err := flagColumn(flag)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := travelerOffers(tx.Clauses(skipLocked("travel_offers")), travelerID).Where("travel_offers."+col+" = ?", false)
		if flag == FlagExpirySent {
			q = q.Where("travel_offers.closed_reason = ?", models.ClosedExpired)
		} else {
			q = q.Where("travel_offers.is_deleted = ? AND travel_offers.is_accepted IS NULL AND travel_offers.is_payed IS NULL", false)
		}

		var offers []models.TravelOffer
		if err := q.Preload("Order.TravelDetail").Preload("Order.MatchObject").Order("travel_offers.created_at").Find(&offers).Error; err != nil {
			return err
		}
		if len(offers) == 0 {
			return nil
		}
		if err := fn(offers); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(offers))
		for i := range offers {
			ids[i] = offers[i].ID
		}
		return tx.Model(&models.TravelOffer{}).Where("id IN ?", ids).Update(col, true).Error
	})
}
