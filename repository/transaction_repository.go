package repository

import (
	"context"
	"errors"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *GormStore) GetOrCreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	db := s.db.WithContext(ctx)

	var existing models.Transaction
	err := db.Where("travel_offer_id = ?", tx.TravelOfferID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := translate(db.Omit("TravelOffer").Create(tx).Error); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// lost the race against a concurrent init for the same offer
			if err := db.Where("travel_offer_id = ?", tx.TravelOfferID).First(&existing).Error; err != nil {
				return nil, translate(err)
			}
			return &existing, nil
		}
		return nil, err
	}
	return tx, nil
}

func (s *GormStore) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) SaveTransactionResult(ctx context.Context, tx *models.Transaction) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND result = ?", tx.ID, "").
		Updates(map[string]interface{}{
			"amount":              tx.Amount,
			"currency":            tx.Currency,
			"payment_id":          tx.PaymentID,
			"salt":                tx.Salt,
			"sig":                 tx.Sig,
			"card_pan":            tx.CardPan,
			"status":              tx.Status,
			"result":              tx.Result,
			"failure_description": tx.FailureDescription,
			"payment_date":        tx.PaymentDate,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ClaimTransactionSent(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND is_sent = ? AND result <> ?", id, false, "").
		Update("is_sent", true)
	return res.RowsAffected == 1, res.Error
}

func (s *GormStore) ReleaseTransactionSent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("is_sent", false).Error
}

func (s *GormStore) WithUndeliveredTransactions(ctx context.Context, userID uuid.UUID, fn func([]models.Transaction) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txs []models.Transaction
		err := tx.Clauses(skipLocked("transactions")).
			Where("user_id = ? AND is_sent = ? AND result <> ?", userID, false, "").
			Order("created_at").
			Find(&txs).Error
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			return nil
		}
		if err := fn(txs); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(txs))
		for i := range txs {
			ids[i] = txs[i].ID
		}
		return tx.Model(&models.Transaction{}).Where("id IN ?", ids).Update("is_sent", true).Error
	})
}

var _ Store = (*GormStore)(nil)
