package pricing

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anjiri1684/houserent/models"
	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type countingSource struct {
	prices map[uuid.UUID][]models.ObjectPrice
	calls  int
	err    error
}

func (s *countingSource) ObjectPrices(_ context.Context, objectID uuid.UUID) ([]models.ObjectPrice, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.prices[objectID], nil
}

func TestResolverCachesUntilInvalidated(t *testing.T) {
	objectID := uuid.New()
	source := &countingSource{prices: map[uuid.UUID][]models.ObjectPrice{
		objectID: {interval(day(2024, 7, 1), day(2024, 7, 31), 100)},
	}}
	r := NewResolver(source, Config{Size: 8})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		price, ok, err := r.Resolve(ctx, objectID, day(2024, 7, 4))
		if err != nil || !ok || price != 100 {
			t.Fatalf("Resolve() = %d, %v, %v", price, ok, err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("source called %d times, want 1", source.calls)
	}

	source.prices[objectID] = []models.ObjectPrice{interval(day(2024, 7, 1), day(2024, 7, 31), 250)}
	if err := r.Invalidate(ctx, objectID); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	price, _, _ := r.Resolve(ctx, objectID, day(2024, 7, 4))
	if price != 250 {
		t.Fatalf("after Invalidate price = %d, want 250", price)
	}
	if source.calls != 2 {
		t.Fatalf("source called %d times, want 2", source.calls)
	}
}

func TestResolverMatchesAcrossMonths(t *testing.T) {
	objectID := uuid.New()
	source := &countingSource{prices: map[uuid.UUID][]models.ObjectPrice{
		objectID: {interval(day(2024, 7, 28), day(2024, 8, 3), 300)},
	}}
	r := NewResolver(source, Config{})

	price, ok, err := r.Resolve(context.Background(), objectID, day(2024, 8, 3))
	if err != nil || !ok || price != 300 {
		t.Fatalf("Resolve() = %d, %v, %v, want 300", price, ok, err)
	}
	if _, ok := r.Current(source.prices[objectID], day(2024, 8, 3)); ok {
		t.Error("Current() matched a month-spanning interval under the month/day rule")
	}

	strict := NewResolver(source, Config{StrictDisplay: true})
	if price, ok := strict.Current(source.prices[objectID], day(2024, 8, 3)); !ok || price != 300 {
		t.Errorf("strict Current() = %d, %v, want 300", price, ok)
	}
}

func TestResolverEntriesExpire(t *testing.T) {
	objectID := uuid.New()
	source := &countingSource{prices: map[uuid.UUID][]models.ObjectPrice{
		objectID: {interval(day(2024, 7, 1), day(2024, 7, 31), 300)},
	}}
	r := NewResolver(source, Config{Size: 8, TTL: 20 * time.Millisecond})
	ctx := context.Background()

	if price, _, _ := r.Resolve(ctx, objectID, day(2024, 7, 4)); price != 300 {
		t.Fatalf("price = %d, want 300", price)
	}
	source.prices[objectID] = []models.ObjectPrice{interval(day(2024, 7, 1), day(2024, 7, 31), 450)}

	time.Sleep(50 * time.Millisecond)
	if price, _, _ := r.Resolve(ctx, objectID, day(2024, 7, 4)); price != 450 {
		t.Errorf("price after TTL = %d, want 450", price)
	}
}

func TestResolverInvalidationReachesOtherNodes(t *testing.T) {
	srv := miniredis.RunT(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	newNode := func() *Resolver {
		cli := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		t.Cleanup(func() { cli.Close() })
		r := NewResolver(&countingSource{}, Config{Size: 8, TTL: time.Hour})
		r.Broadcast(NewRedisInvalidations(cli), log)
		return r
	}

	objectID := uuid.New()
	source := &countingSource{prices: map[uuid.UUID][]models.ObjectPrice{
		objectID: {interval(day(2024, 7, 1), day(2024, 7, 31), 300)},
	}}
	a, b := newNode(), newNode()
	a.source, b.source = source, source

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Listen(ctx)

	if price, _, _ := b.Resolve(ctx, objectID, day(2024, 7, 4)); price != 300 {
		t.Fatalf("node b price = %d, want 300", price)
	}
	source.prices[objectID] = []models.ObjectPrice{interval(day(2024, 7, 1), day(2024, 7, 31), 450)}

	// node b may still be subscribing, so keep announcing until it reloads
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := a.Invalidate(ctx, objectID); err != nil {
			t.Fatalf("Invalidate() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
		if price, _, _ := b.Resolve(ctx, objectID, day(2024, 7, 4)); price == 450 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("node b kept serving the replaced price table")
		}
	}
}

func TestResolverSourceError(t *testing.T) {
	source := &countingSource{err: errors.New("db down")}
	r := NewResolver(source, Config{})

	if _, _, err := r.Resolve(context.Background(), uuid.New(), day(2024, 7, 4)); err == nil {
		t.Fatal("expected error from source")
	}
}
