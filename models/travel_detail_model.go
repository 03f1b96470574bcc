package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TravelDetail struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PlacementID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"placement_id"`
	StartDate    time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate      time.Time  `gorm:"type:date;not null" json:"end_date"`
	BudgetMin    int64      `gorm:"not null;default:0" json:"budget_min"`
	BudgetMax    int64      `gorm:"not null" json:"budget_max"`
	Guests       int        `gorm:"not null;default:1" json:"guests"`
	Facilities   int        `gorm:"not null;default:1" json:"facilities"`
	ObjectTypeID *uuid.UUID `gorm:"type:uuid" json:"object_type_id"`
	ObjectKindID uuid.UUID  `gorm:"type:uuid;not null" json:"object_kind_id"`
	Commentary   *string    `gorm:"type:text" json:"commentary"`
	IsDeleted    bool       `gorm:"not null;default:false;index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *TravelDetail) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
