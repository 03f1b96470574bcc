package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/houserent/jobs"
	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/pricing"
	"github.com/anjiri1684/houserent/registry"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const testDelay = 5 * time.Minute

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type sentMessage struct {
	Handle  string
	Type    notifications.Event
	Payload json.RawMessage
}

type recordingSender struct {
	mu   sync.Mutex
	fail bool
	sent []sentMessage
}

func (r *recordingSender) Send(_ context.Context, handle string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("connection reset")
	}
	var env struct {
		Type    notifications.Event `json:"type"`
		Payload json.RawMessage     `json:"payload"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	r.sent = append(r.sent, sentMessage{Handle: handle, Type: env.Type, Payload: env.Payload})
	return nil
}

func (r *recordingSender) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *recordingSender) to(handle string) []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentMessage
	for _, m := range r.sent {
		if m.Handle == handle {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type scheduled struct {
	Kind     jobs.Kind
	EntityID uuid.UUID
	Delay    time.Duration
}

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []scheduled
}

func (r *recordingScheduler) Schedule(_ context.Context, kind jobs.Kind, entityID uuid.UUID, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, scheduled{Kind: kind, EntityID: entityID, Delay: delay})
	return nil
}

func (r *recordingScheduler) all() []scheduled {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scheduled(nil), r.jobs...)
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memStore
	reg      *registry.MemoryRegistry
	sender   *recordingSender
	sched    *recordingScheduler
	prices   *pricing.Resolver
	log      *logrus.Logger
	matching *MatchingService
	orders   *OrderService
	offers   *OfferService
	travels  *TravelService
	listings *ListingService
	catchUp  *CatchUpService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  newMemStore(),
		reg:    registry.NewMemoryRegistry(),
		sender: &recordingSender{},
		sched:  &recordingScheduler{},
		log:    quietLogger(),
	}
	prices := pricing.NewResolver(f.store, pricing.Config{Size: 16})
	f.prices = prices

	dispatcher := notifications.NewDispatcher(f.reg, f.sender, f.log)
	f.matching = NewMatchingService(f.store, prices, dispatcher, f.sched, testDelay, false, f.log)
	f.orders = NewOrderService(f.store, prices, dispatcher, f.log)
	f.offers = NewOfferService(f.store, f.store, dispatcher, f.sched, testDelay, f.log)
	f.travels = NewTravelService(f.store, f.matching, f.log)
	f.listings = NewListingService(f.store, prices, f.log)
	f.catchUp = NewCatchUpService(f.store, prices, dispatcher, f.log)
	return f
}

func day(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// connect registers identity on topic and returns the handle messages go to.
func (f *fixture) connect(topic registry.Topic, identity uuid.UUID) string {
	f.t.Helper()
	handle := registry.Handle("node-1", uuid.NewString())
	if err := f.reg.Register(f.ctx, topic, identity.String(), handle); err != nil {
		f.t.Fatalf("Register() error = %v", err)
	}
	return handle
}

type market struct {
	vendor    uuid.UUID
	traveler  uuid.UUID
	placement uuid.UUID
	kind      uuid.UUID
	object    *models.LocationObject
}

// newMarket seeds one July listing priced at 300 for a vendor.
func (f *fixture) newMarket() *market {
	f.t.Helper()
	m := &market{
		vendor:    uuid.New(),
		traveler:  uuid.New(),
		placement: uuid.New(),
		kind:      uuid.New(),
	}
	obj, err := f.listings.CreateObject(f.ctx, m.vendor, ObjectInput{
		PlacementID:  m.placement,
		Name:         "Lake house",
		ObjectTypeID: uuid.New(),
		ObjectKindID: m.kind,
		Occupancy:    4,
		Prices:       []PriceInput{{StartDate: day("2024-07-01"), EndDate: day("2024-07-31"), Price: 300}},
	})
	if err != nil {
		f.t.Fatalf("CreateObject() error = %v", err)
	}
	m.object = obj
	return m
}

func (m *market) travelInput() TravelInput {
	return TravelInput{
		PlacementID:  m.placement,
		StartDate:    day("2024-07-10"),
		EndDate:      day("2024-07-15"),
		BudgetMin:    100,
		BudgetMax:    500,
		Guests:       2,
		ObjectKindID: m.kind,
	}
}

// newOrder runs a search for the market and returns its single order.
func (f *fixture) newOrder(m *market) models.Order {
	f.t.Helper()
	_, orders, err := f.travels.CreateTravel(f.ctx, m.traveler, m.travelInput())
	if err != nil {
		f.t.Fatalf("CreateTravel() error = %v", err)
	}
	if len(orders) != 1 {
		f.t.Fatalf("CreateTravel() matched %d orders, want 1", len(orders))
	}
	return orders[0]
}

// newOffer approves a fresh order and makes an offer on it.
func (f *fixture) newOffer(m *market, price int64) *models.TravelOffer {
	f.t.Helper()
	order := f.newOrder(m)
	if _, err := f.orders.ApproveOrder(f.ctx, m.vendor, order.ID); err != nil {
		f.t.Fatalf("ApproveOrder() error = %v", err)
	}
	offer, err := f.offers.CreateOffer(f.ctx, m.vendor, order.ID, OfferInput{Price: price})
	if err != nil {
		f.t.Fatalf("CreateOffer() error = %v", err)
	}
	return offer
}
