package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

type PriceSource interface {
	ObjectPrices(ctx context.Context, objectID uuid.UUID) ([]models.ObjectPrice, error)
}

type Config struct {
	// Size bounds the number of cached price tables.
	Size int
	// TTL bounds how long a table is served from the cache. It is the
	// staleness limit when invalidations are not broadcast.
	TTL time.Duration
	// StrictDisplay switches the listing's current price from the month/day
	// rule to full calendar dates.
	StrictDisplay bool
}

// Resolver resolves prices through an LRU of per-object price tables.
type Resolver struct {
	source PriceSource
	cache  *expirable.LRU[uuid.UUID, []models.ObjectPrice]
	strict bool

	bus Invalidations
	log *logrus.Logger
}

func NewResolver(source PriceSource, cfg Config) *Resolver {
	if cfg.Size <= 0 {
		cfg.Size = 512
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	return &Resolver{
		source: source,
		cache:  expirable.NewLRU[uuid.UUID, []models.ObjectPrice](cfg.Size, nil, cfg.TTL),
		strict: cfg.StrictDisplay,
	}
}

// Broadcast makes Invalidate reach the resolvers of every process listening
// on bus.
func (r *Resolver) Broadcast(bus Invalidations, log *logrus.Logger) {
	r.bus = bus
	r.log = log
}

// Resolve returns the price matched to a stay ending on date. Intervals are
// compared by full calendar dates, so one spanning a month boundary matches.
func (r *Resolver) Resolve(ctx context.Context, objectID uuid.UUID, date time.Time) (int64, bool, error) {
	prices, err := r.prices(ctx, objectID)
	if err != nil {
		return 0, false, err
	}
	price, ok := Resolve(prices, date, true)
	return price, ok, nil
}

// Current returns the price a listing shows for date, under the display rule.
func (r *Resolver) Current(prices []models.ObjectPrice, date time.Time) (int64, bool) {
	return Resolve(prices, date, r.strict)
}

// Invalidate drops the cached price table of an object here and, when
// broadcasting, on every other node.
func (r *Resolver) Invalidate(ctx context.Context, objectID uuid.UUID) error {
	r.cache.Remove(objectID)
	if r.bus == nil {
		return nil
	}
	return r.bus.Publish(ctx, objectID)
}

// Listen applies invalidations published by other nodes until ctx is done.
func (r *Resolver) Listen(ctx context.Context) error {
	if r.bus == nil {
		<-ctx.Done()
		return nil
	}
	ids, closeSub, err := r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer closeSub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-ids:
			if !ok {
				return nil
			}
			r.cache.Remove(id)
			if r.log != nil {
				r.log.WithField("object_id", id).Debug("price table invalidated")
			}
		}
	}
}

func (r *Resolver) prices(ctx context.Context, objectID uuid.UUID) ([]models.ObjectPrice, error) {
	if cached, ok := r.cache.Get(objectID); ok {
		return cached, nil
	}
	prices, err := r.source.ObjectPrices(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("load prices of %s: %w", objectID, err)
	}
	r.cache.Add(objectID, prices)
	return prices, nil
}
