package services

import (
	"context"
	"fmt"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TravelService struct {
	store    repository.TravelStore
	matching *MatchingService
	log      *logrus.Logger
}

func NewTravelService(store repository.TravelStore, matching *MatchingService, log *logrus.Logger) *TravelService {
	return &TravelService{store: store, matching: matching, log: log}
}

// CreateTravel stores the search and opens orders for every matching listing.
// The returned orders may be empty.
func (s *TravelService) CreateTravel(ctx context.Context, travelerID uuid.UUID, in TravelInput) (*models.TravelDetail, []models.Order, error) {
	if err := checkRange(in.StartDate, in.EndDate); err != nil {
		return nil, nil, err
	}
	if in.BudgetMax < in.BudgetMin {
		return nil, nil, validationError("invalid_budget", "budget_max must not be below budget_min")
	}

	td := &models.TravelDetail{
		UserID:       travelerID,
		PlacementID:  in.PlacementID,
		StartDate:    in.StartDate.Time,
		EndDate:      in.EndDate.Time,
		BudgetMin:    in.BudgetMin,
		BudgetMax:    in.BudgetMax,
		Guests:       in.Guests,
		Facilities:   in.Facilities,
		ObjectTypeID: in.ObjectTypeID,
		ObjectKindID: in.ObjectKindID,
		Commentary:   in.Commentary,
	}
	if err := s.store.CreateTravelDetail(ctx, td); err != nil {
		return nil, nil, fmt.Errorf("create travel detail: %w", err)
	}

	orders, err := s.matching.CreateMatchingOrders(ctx, td)
	return td, orders, err
}

func (s *TravelService) GetTravel(ctx context.Context, travelerID, travelID uuid.UUID) (*models.TravelDetail, error) {
	td, err := s.store.GetTravelDetail(ctx, travelID)
	if err != nil {
		return nil, lookupErr("travel", err)
	}
	if td.UserID != travelerID {
		return nil, forbidden("travel belongs to another traveler")
	}
	return td, nil
}

func (s *TravelService) DeleteTravel(ctx context.Context, travelerID, travelID uuid.UUID) error {
	if _, err := s.GetTravel(ctx, travelerID, travelID); err != nil {
		return err
	}
	ok, err := s.store.DeleteTravelDetail(ctx, travelID)
	if err != nil {
		return fmt.Errorf("delete travel detail: %w", err)
	}
	if !ok {
		return notFound("travel")
	}
	return nil
}

// CancelSearch closes the traveler's unanswered offers and pending orders and
// drops unpaid searches.
func (s *TravelService) CancelSearch(ctx context.Context, travelerID uuid.UUID) (repository.CancelSummary, error) {
	summary, err := s.store.CancelSearch(ctx, travelerID)
	if err != nil {
		return summary, fmt.Errorf("cancel search: %w", err)
	}
	s.log.WithFields(logrus.Fields{"traveler_id": travelerID, "offers": summary.Offers, "orders": summary.Orders, "travels": summary.Travels}).Info("search cancelled")
	return summary, nil
}
