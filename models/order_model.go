package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ClosedRejected  = "rejected"
	ClosedExpired   = "expired"
	ClosedCancelled = "cancelled"
)

// Order links a traveler's search to one matching listing. Approved is nil
// while the vendor has not answered.
type Order struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TravelDetailID uuid.UUID `gorm:"type:uuid;not null;index" json:"travel_detail_id"`
	MatchObjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"match_object_id"`
	Approved       *bool     `json:"approved"`
	IsSent         bool      `gorm:"not null;default:false" json:"-"`
	ExpirySent     bool      `gorm:"not null;default:false" json:"-"`
	ClosedReason   string    `gorm:"size:20;not null;default:''" json:"closed_reason,omitempty"`
	Version        int       `gorm:"not null;default:0" json:"version"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`
	IsDeleted      bool      `gorm:"not null;default:false;index" json:"-"`

	TravelDetail *TravelDetail   `gorm:"foreignKey:TravelDetailID" json:"travel_detail,omitempty"`
	MatchObject  *LocationObject `gorm:"foreignKey:MatchObjectID" json:"match_object,omitempty"`
	// Offers are the vendor's live counter-offers, loaded for vendor views only.
	Offers []TravelOffer `gorm:"foreignKey:OrderID" json:"offers,omitempty"`

	MatchedPrice *int64 `gorm:"-" json:"matched_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Order) Pending() bool {
	return !o.IsDeleted && o.Approved == nil
}

func (o *Order) IsApproved() bool {
	return !o.IsDeleted && o.Approved != nil && *o.Approved
}
