package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationObject is a rentable listing owned by a vendor.
type LocationObject struct {
	ID                       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	VendorID                 uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_id"`
	PlacementID              uuid.UUID `gorm:"type:uuid;not null;index" json:"placement_id"`
	Name                     string    `gorm:"size:255;not null" json:"name"`
	ObjectTypeID             uuid.UUID `gorm:"type:uuid;not null" json:"object_type_id"`
	ObjectKindID             uuid.UUID `gorm:"type:uuid;not null;index" json:"object_kind_id"`
	Occupancy                int       `gorm:"not null;default:1" json:"occupancy"`
	Currency                 string    `gorm:"size:3;not null;default:'KZT'" json:"currency"`
	Partnership              int       `gorm:"not null;default:0" json:"partnership"`
	FullRefundCutoffHours    int       `gorm:"not null;default:48" json:"full_refund_cutoff_hours"`
	PartialRefundCutoffHours int       `gorm:"not null;default:24" json:"partial_refund_cutoff_hours"`
	CancellationPolicy       *string   `gorm:"type:text" json:"cancellation_policy"`
	IsDeleted                bool      `gorm:"not null;default:false;index" json:"-"`

	Prices []ObjectPrice `gorm:"foreignKey:ObjectID" json:"prices,omitempty"`

	// CurrentPrice is resolved for display and never stored.
	CurrentPrice *int64 `gorm:"-" json:"current_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *LocationObject) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ObjectPrice is one dated price interval. Intervals of one object may overlap.
type ObjectPrice struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"object_id"`
	StartDate time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null" json:"end_date"`
	Price     int64     `gorm:"not null" json:"price"`
	IsDeleted bool      `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ObjectPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
