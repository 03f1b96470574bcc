package services

import (
	"context"

	"github.com/anjiri1684/houserent/jobs"
	"github.com/google/uuid"
)

// RegisterExpiryJobs binds the expiry job kinds to the services that close
// untouched orders and offers.
func RegisterExpiryJobs(router *jobs.Router, orders *OrderService, offers *OfferService) {
	router.Handle(jobs.KindExpireOrder, func(ctx context.Context, id uuid.UUID) error {
		_, err := orders.ExpireOrder(ctx, id)
		return err
	})
	router.Handle(jobs.KindExpireOffer, func(ctx context.Context, id uuid.UUID) error {
		_, err := offers.ExpireOffer(ctx, id)
		return err
	})
}
