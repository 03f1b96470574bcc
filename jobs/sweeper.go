package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OverdueSource lists pending entities whose expiry time has passed.
type OverdueSource interface {
	OverdueOrders(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	OverdueOffers(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// Sweeper expires whatever the delayed jobs missed, through the same handlers.
type Sweeper struct {
	source OverdueSource
	router *Router
	log    *logrus.Logger
	limit  int
	now    func() time.Time
}

func NewSweeper(source OverdueSource, router *Router, log *logrus.Logger) *Sweeper {
	return &Sweeper{source: source, router: router, log: log, limit: 500, now: time.Now}
}

// Start registers the sweep on c.
func (s *Sweeper) Start(c *cron.Cron, every time.Duration) (cron.EntryID, error) {
	return c.AddFunc("@every "+every.String(), s.Run)
}

func (s *Sweeper) Run() {
	s.log.Debug("Running job: expiry sweep")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := s.now()
	orders, err := s.source.OverdueOrders(ctx, now, s.limit)
	if err != nil {
		s.log.WithError(err).Error("sweep: list overdue orders")
	}
	offers, err := s.source.OverdueOffers(ctx, now, s.limit)
	if err != nil {
		s.log.WithError(err).Error("sweep: list overdue offers")
	}

	for _, id := range orders {
		_ = s.router.Run(ctx, NewTask(KindExpireOrder, id, now))
	}
	for _, id := range offers {
		_ = s.router.Run(ctx, NewTask(KindExpireOffer, id, now))
	}

	if len(orders)+len(offers) > 0 {
		s.log.WithFields(logrus.Fields{"orders": len(orders), "offers": len(offers)}).Info("sweep expired overdue entities")
	}
}
