// Package repository persists the marketplace entities. Every state change is
// a guarded update that reports whether it won.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Flag names a delivery flag column.
type Flag string

const (
	FlagSent       Flag = "is_sent"
	FlagExpirySent Flag = "expiry_sent"
)

type OrderStatus string

const (
	OrdersPending  OrderStatus = "pending"
	OrdersApproved OrderStatus = "approved"
	OrdersRejected OrderStatus = "rejected"
)

type OfferStatus string

const (
	OffersPending OfferStatus = "pending"
	OffersActive  OfferStatus = "active"
	OffersPast    OfferStatus = "past"
)

// OfferFilter selects a traveler's offers. A zero Date disables the travel
// end date bound of the active and past views.
type OfferFilter struct {
	Status OfferStatus
	Date   time.Time
}

type MatchCriteria struct {
	PlacementID  uuid.UUID
	ObjectKindID uuid.UUID
	ObjectTypeID *uuid.UUID
	Start        time.Time
	End          time.Time
	Strict       bool
}

type Contact struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

type CancelSummary struct {
	Offers  int64 `json:"offers"`
	Orders  int64 `json:"orders"`
	Travels int64 `json:"travels"`
}

type ListingStore interface {
	CreateLocationObject(ctx context.Context, obj *models.LocationObject) error
	GetLocationObject(ctx context.Context, id uuid.UUID) (*models.LocationObject, error)
	ReplaceObjectPrices(ctx context.Context, objectID uuid.UUID, prices []models.ObjectPrice) error
	ObjectPrices(ctx context.Context, objectID uuid.UUID) ([]models.ObjectPrice, error)
}

type TravelStore interface {
	CreateTravelDetail(ctx context.Context, td *models.TravelDetail) error
	GetTravelDetail(ctx context.Context, id uuid.UUID) (*models.TravelDetail, error)
	DeleteTravelDetail(ctx context.Context, id uuid.UUID) (bool, error)
	// CancelSearch closes the traveler's pending orders and deletes travel
	// details that have no paid offer.
	CancelSearch(ctx context.Context, userID uuid.UUID) (CancelSummary, error)
}

type OrderStore interface {
	FindMatchingObjects(ctx context.Context, criteria MatchCriteria) ([]models.LocationObject, error)
	// CreateOrder returns ErrDuplicate when a live order already links the
	// same travel detail and object.
	CreateOrder(ctx context.Context, order *models.Order) error
	// GetOrder loads the order with its travel detail and object, deleted or not.
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ApproveOrder(ctx context.Context, id uuid.UUID) (bool, error)
	CloseOrder(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	ClaimOrderFlag(ctx context.Context, id uuid.UUID, flag Flag) (bool, error)
	ReleaseOrderFlag(ctx context.Context, id uuid.UUID, flag Flag) error
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status OrderStatus) ([]models.Order, error)
	OverdueOrders(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	// WithUndeliveredOrders locks the vendor's orders still owed on flag and
	// hands them to fn. The flag is set only if fn succeeds.
	WithUndeliveredOrders(ctx context.Context, vendorID uuid.UUID, flag Flag, fn func([]models.Order) error) error
}

type OfferStore interface {
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOffer(ctx context.Context, offer *models.TravelOffer) error
	// GetOffer loads the offer with its order, travel detail and object.
	GetOffer(ctx context.Context, id uuid.UUID) (*models.TravelOffer, error)
	AcceptOffer(ctx context.Context, id uuid.UUID) (bool, error)
	CloseOffer(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	SettleOffer(ctx context.Context, id uuid.UUID, paid bool) (bool, error)
	UpdateOfferContact(ctx context.Context, id uuid.UUID, contact Contact) error
	ClaimOfferFlag(ctx context.Context, id uuid.UUID, flag Flag) (bool, error)
	ReleaseOfferFlag(ctx context.Context, id uuid.UUID, flag Flag) error
	ListTravelerOffers(ctx context.Context, travelerID uuid.UUID, filter OfferFilter) ([]models.TravelOffer, error)
	OverdueOffers(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	WithUndeliveredOffers(ctx context.Context, travelerID uuid.UUID, flag Flag, fn func([]models.TravelOffer) error) error
}

type TransactionStore interface {
	// GetOrCreateTransaction returns the existing transaction of the offer or stores tx.
	GetOrCreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	// SaveTransactionResult records a gateway result once; later results are ignored.
	SaveTransactionResult(ctx context.Context, tx *models.Transaction) (bool, error)
	ClaimTransactionSent(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseTransactionSent(ctx context.Context, id uuid.UUID) error
	WithUndeliveredTransactions(ctx context.Context, userID uuid.UUID, fn func([]models.Transaction) error) error
}

type Store interface {
	ListingStore
	TravelStore
	OrderStore
	OfferStore
	TransactionStore
}
