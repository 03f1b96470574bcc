package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
)

// Notifier is satisfied by *notifications.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, topic registry.Topic, identity string, msg notifications.Message) (bool, error)
	Deliver(ctx context.Context, topic registry.Topic, identity string, msg notifications.Message, claim *notifications.Claim) (bool, error)
	SendTo(ctx context.Context, handle string, msg notifications.Message) error
}

// Mailer sends the booking confirmation of a paid offer.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, offer *models.TravelOffer) error
}

type orderFlags interface {
	ClaimOrderFlag(ctx context.Context, id uuid.UUID, flag repository.Flag) (bool, error)
	ReleaseOrderFlag(ctx context.Context, id uuid.UUID, flag repository.Flag) error
}

type offerFlags interface {
	ClaimOfferFlag(ctx context.Context, id uuid.UUID, flag repository.Flag) (bool, error)
	ReleaseOfferFlag(ctx context.Context, id uuid.UUID, flag repository.Flag) error
}

func orderClaim(store orderFlags, id uuid.UUID, flag repository.Flag) *notifications.Claim {
	return &notifications.Claim{
		Acquire: func(ctx context.Context) (bool, error) { return store.ClaimOrderFlag(ctx, id, flag) },
		Release: func(ctx context.Context) error { return store.ReleaseOrderFlag(ctx, id, flag) },
	}
}

func offerClaim(store offerFlags, id uuid.UUID, flag repository.Flag) *notifications.Claim {
	return &notifications.Claim{
		Acquire: func(ctx context.Context) (bool, error) { return store.ClaimOfferFlag(ctx, id, flag) },
		Release: func(ctx context.Context) error { return store.ReleaseOfferFlag(ctx, id, flag) },
	}
}

// lookupErr maps a repository miss to a not-found error for entity.
func lookupErr(entity string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(entity)
	}
	return fmt.Errorf("load %s: %w", entity, err)
}

func orderVendor(o *models.Order) uuid.UUID {
	if o.MatchObject == nil {
		return uuid.Nil
	}
	return o.MatchObject.VendorID
}

func orderTraveler(o *models.Order) uuid.UUID {
	if o.TravelDetail == nil {
		return uuid.Nil
	}
	return o.TravelDetail.UserID
}
