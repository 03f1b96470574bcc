package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/pricing"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ListingService struct {
	store  repository.ListingStore
	prices *pricing.Resolver
	log    *logrus.Logger
}

func NewListingService(store repository.ListingStore, prices *pricing.Resolver, log *logrus.Logger) *ListingService {
	return &ListingService{store: store, prices: prices, log: log}
}

func (s *ListingService) CreateObject(ctx context.Context, vendorID uuid.UUID, in ObjectInput) (*models.LocationObject, error) {
	prices, err := priceRows(in.Prices)
	if err != nil {
		return nil, err
	}

	obj := &models.LocationObject{
		VendorID:                 vendorID,
		PlacementID:              in.PlacementID,
		Name:                     in.Name,
		ObjectTypeID:             in.ObjectTypeID,
		ObjectKindID:             in.ObjectKindID,
		Occupancy:                in.Occupancy,
		Currency:                 in.Currency,
		Partnership:              in.Partnership,
		FullRefundCutoffHours:    48,
		PartialRefundCutoffHours: 24,
		CancellationPolicy:       in.CancellationPolicy,
		Prices:                   prices,
	}
	if obj.Currency == "" {
		obj.Currency = "KZT"
	}
	if in.FullRefundCutoffHours != nil {
		obj.FullRefundCutoffHours = *in.FullRefundCutoffHours
	}
	if in.PartialRefundCutoffHours != nil {
		obj.PartialRefundCutoffHours = *in.PartialRefundCutoffHours
	}

	if err := s.store.CreateLocationObject(ctx, obj); err != nil {
		return nil, fmt.Errorf("create location object: %w", err)
	}
	s.log.WithFields(logrus.Fields{"object_id": obj.ID, "vendor_id": vendorID}).Info("location object created")
	return obj, nil
}

// ReplacePrices swaps the whole price table of a listing the vendor owns.
func (s *ListingService) ReplacePrices(ctx context.Context, vendorID, objectID uuid.UUID, in []PriceInput) ([]models.ObjectPrice, error) {
	obj, err := s.store.GetLocationObject(ctx, objectID)
	if err != nil {
		return nil, lookupErr("object", err)
	}
	if obj.VendorID != vendorID {
		return nil, forbidden("object belongs to another vendor")
	}

	prices, err := priceRows(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceObjectPrices(ctx, objectID, prices); err != nil {
		return nil, fmt.Errorf("replace prices: %w", err)
	}
	if err := s.prices.Invalidate(ctx, objectID); err != nil {
		// other nodes pick the new table up when their cached copy expires
		s.log.WithError(err).WithField("object_id", objectID).Warn("price invalidation not broadcast")
	}
	return prices, nil
}

// GetObject returns a listing with the price that applies on date.
func (s *ListingService) GetObject(ctx context.Context, objectID uuid.UUID, date time.Time) (*models.LocationObject, error) {
	obj, err := s.store.GetLocationObject(ctx, objectID)
	if err != nil {
		return nil, lookupErr("object", err)
	}
	if price, ok := s.prices.Current(obj.Prices, date); ok {
		obj.CurrentPrice = &price
	}
	return obj, nil
}

func priceRows(in []PriceInput) ([]models.ObjectPrice, error) {
	rows := make([]models.ObjectPrice, 0, len(in))
	for _, p := range in {
		if err := checkRange(p.StartDate, p.EndDate); err != nil {
			return nil, err
		}
		if p.Price <= 0 {
			return nil, validationError("invalid_price", "price must be positive")
		}
		rows = append(rows, models.ObjectPrice{StartDate: p.StartDate.Time, EndDate: p.EndDate.Time, Price: p.Price})
	}
	return rows, nil
}
