package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TravelOffer is a vendor's counter-offer on an approved order.
type TravelOffer struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	OrderNumber  int64     `gorm:"not null;uniqueIndex" json:"order_number"`
	Price        int64     `gorm:"not null" json:"price"`
	Comment      *string   `gorm:"type:text" json:"comment"`
	IsPayed      *bool     `json:"is_payed"`
	IsAccepted   *bool     `json:"is_accepted"`
	IsSent       bool      `gorm:"not null;default:false" json:"-"`
	ExpirySent   bool      `gorm:"not null;default:false" json:"-"`
	ClosedReason string    `gorm:"size:20;not null;default:''" json:"closed_reason,omitempty"`
	Version      int       `gorm:"not null;default:0" json:"version"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	IsDeleted    bool      `gorm:"not null;default:false;index" json:"-"`

	FirstName   *string `gorm:"size:100" json:"first_name,omitempty"`
	LastName    *string `gorm:"size:100" json:"last_name,omitempty"`
	Email       *string `gorm:"size:255" json:"email,omitempty"`
	PhoneNumber *string `gorm:"size:32" json:"phone_number,omitempty"`

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *TravelOffer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Pending reports whether the traveler has not answered and nothing was paid.
func (o *TravelOffer) Pending() bool {
	return !o.IsDeleted && o.IsAccepted == nil && o.IsPayed == nil
}

func (o *TravelOffer) Accepted() bool {
	return !o.IsDeleted && o.IsAccepted != nil && *o.IsAccepted
}

// Settled reports whether a payment result was recorded; settled offers never change again.
func (o *TravelOffer) Settled() bool {
	return o.IsPayed != nil
}
