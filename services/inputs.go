package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

type TravelInput struct {
	PlacementID  uuid.UUID  `json:"placement_id" validate:"required"`
	StartDate    Date       `json:"start_date"`
	EndDate      Date       `json:"end_date"`
	BudgetMin    int64      `json:"budget_min" validate:"gte=0"`
	BudgetMax    int64      `json:"budget_max" validate:"gt=0,gtefield=BudgetMin"`
	Guests       int        `json:"guests" validate:"gte=1"`
	Facilities   int        `json:"facilities" validate:"gte=0"`
	ObjectTypeID *uuid.UUID `json:"object_type_id"`
	ObjectKindID uuid.UUID  `json:"object_kind_id" validate:"required"`
	Commentary   *string    `json:"commentary" validate:"omitempty,max=2000"`
}

type PriceInput struct {
	StartDate Date  `json:"start_date"`
	EndDate   Date  `json:"end_date"`
	Price     int64 `json:"price" validate:"gt=0"`
}

type ObjectInput struct {
	PlacementID              uuid.UUID    `json:"placement_id" validate:"required"`
	Name                     string       `json:"name" validate:"required,max=255"`
	ObjectTypeID             uuid.UUID    `json:"object_type_id" validate:"required"`
	ObjectKindID             uuid.UUID    `json:"object_kind_id" validate:"required"`
	Occupancy                int          `json:"occupancy" validate:"gte=1"`
	Currency                 string       `json:"currency" validate:"omitempty,len=3"`
	Partnership              int          `json:"partnership" validate:"gte=0,lte=100"`
	FullRefundCutoffHours    *int         `json:"full_refund_cutoff_hours" validate:"omitempty,gte=0"`
	PartialRefundCutoffHours *int         `json:"partial_refund_cutoff_hours" validate:"omitempty,gte=0"`
	CancellationPolicy       *string      `json:"cancellation_policy"`
	Prices                   []PriceInput `json:"prices" validate:"dive"`
}

type OfferInput struct {
	Price   int64   `json:"price"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type PaymentInput struct {
	OfferID     uuid.UUID `json:"travel_offer" validate:"required"`
	FirstName   string    `json:"first_name" validate:"required,max=100"`
	LastName    string    `json:"last_name" validate:"required,max=100"`
	Email       string    `json:"email" validate:"required,email"`
	PhoneNumber string    `json:"phone_number" validate:"required,max=32"`
}

func checkRange(start, end Date) error {
	if start.IsZero() || end.IsZero() {
		return validationError("invalid_dates", "start_date and end_date are required")
	}
	if end.Before(start.Time) {
		return validationError("invalid_dates", "end_date must not be before start_date")
	}
	return nil
}
