package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Transaction struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	TravelOfferID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"travel_offer_id"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency           string          `gorm:"size:3;not null;default:'KZT'" json:"currency"`
	Description        string          `gorm:"size:255" json:"description"`
	PaymentID          *string         `gorm:"size:255" json:"payment_id,omitempty"`
	Salt               *string         `gorm:"size:255" json:"-"`
	Sig                *string         `gorm:"size:255" json:"-"`
	CardPan            *string         `gorm:"size:32" json:"card_pan,omitempty"`
	Status             *string         `gorm:"size:50" json:"status,omitempty"`
	Result             string          `gorm:"size:20;not null;default:''" json:"result"`
	FailureDescription *string         `gorm:"type:text" json:"failure_description,omitempty"`
	PaymentDate        *time.Time      `json:"payment_date,omitempty"`
	IsSent             bool            `gorm:"not null;default:false" json:"-"`

	TravelOffer *TravelOffer `gorm:"foreignKey:TravelOfferID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Transaction) Settled() bool {
	return t.Result != ""
}
