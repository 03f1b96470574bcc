package repository

import (
	"context"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *GormStore) CreateLocationObject(ctx context.Context, obj *models.LocationObject) error {
	return translate(s.db.WithContext(ctx).Create(obj).Error)
}

func (s *GormStore) GetLocationObject(ctx context.Context, id uuid.UUID) (*models.LocationObject, error) {
	var obj models.LocationObject
	err := s.db.WithContext(ctx).
		Preload("Prices", "is_deleted = ?", false).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&obj).Error
	if err != nil {
		return nil, translate(err)
	}
	return &obj, nil
}

func (s *GormStore) ReplaceObjectPrices(ctx context.Context, objectID uuid.UUID, prices []models.ObjectPrice) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ObjectPrice{}).
			Where("object_id = ? AND is_deleted = ?", objectID, false).
			Update("is_deleted", true).Error
		if err != nil {
			return err
		}
		if len(prices) == 0 {
			return nil
		}
		for i := range prices {
			prices[i].ObjectID = objectID
		}
		return tx.Create(&prices).Error
	})
}

func (s *GormStore) ObjectPrices(ctx context.Context, objectID uuid.UUID) ([]models.ObjectPrice, error) {
	var prices []models.ObjectPrice
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND is_deleted = ?", objectID, false).
		Order("start_date, created_at, id").
		Find(&prices).Error
	return prices, err
}
