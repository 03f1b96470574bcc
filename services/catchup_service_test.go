package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/registry"
	"github.com/google/uuid"
)

func TestCatchUpDeliversPendingOrdersOnce(t *testing.T) {
	f := newFixture(t)
	m := f.newMarket()
	created := []models.Order{f.newOrder(m), f.newOrder(m), f.newOrder(m)}

	handle := f.connect(registry.TopicOrders, m.vendor)
	if err := f.catchUp.Replay(f.ctx, registry.TopicOrders, m.vendor, handle); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	msgs := f.sender.to(handle)
	if len(msgs) != 1 || msgs[0].Type != notifications.EventOrdersPending {
		t.Fatalf("got %+v, want one orders_pending batch", msgs)
	}
	var batch []models.Order
	if err := json.Unmarshal(msgs[0].Payload, &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(batch) != len(created) {
		t.Fatalf("batch has %d orders, want %d", len(batch), len(created))
	}
	for i, o := range batch {
		if o.ID != created[i].ID {
			t.Errorf("batch[%d] = %s, want %s", i, o.ID, created[i].ID)
		}
		if o.MatchedPrice == nil || *o.MatchedPrice != 300 {
			t.Errorf("batch[%d].MatchedPrice = %v, want 300", i, o.MatchedPrice)
		}
		if !f.store.orders[o.ID].IsSent {
			t.Errorf("order %s not flagged sent", o.ID)
		}
	}

	if err := f.catchUp.Replay(f.ctx, registry.TopicOrders, m.vendor, handle); err != nil {
		t.Fatalf("second Replay() error = %v", err)
	}
	if got := len(f.sender.to(handle)); got != 1 {
		t.Errorf("second catch-up sent again: %d messages", got)
	}
}

func TestCatchUpSkipsItemsAlreadyPushed(t *testing.T) {
	f := newFixture(t)
	m := f.newMarket()
	offline := f.newOrder(m)

	live := f.connect(registry.TopicOrders, m.vendor)
	online := f.newOrder(m)

	reconnect := f.connect(registry.TopicOrders, m.vendor)
	if err := f.catchUp.Replay(f.ctx, registry.TopicOrders, m.vendor, reconnect); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	if got := f.sender.to(live); len(got) != 1 || got[0].Type != notifications.EventOrderCreated {
		t.Fatalf("live connection got %+v", got)
	}
	msgs := f.sender.to(reconnect)
	if len(msgs) != 1 {
		t.Fatalf("reconnect got %d messages, want 1", len(msgs))
	}
	var batch []models.Order
	if err := json.Unmarshal(msgs[0].Payload, &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(batch) != 1 || batch[0].ID != offline.ID {
		t.Errorf("batch = %v, want only %s (not %s)", batch, offline.ID, online.ID)
	}
}

func TestCatchUpFailedSendRollsBack(t *testing.T) {
	f := newFixture(t)
	m := f.newMarket()
	offer := f.newOffer(m, 300)

	handle := f.connect(registry.TopicOffers, m.traveler)
	f.sender.setFail(true)
	if err := f.catchUp.Replay(f.ctx, registry.TopicOffers, m.traveler, handle); err == nil {
		t.Fatal("Replay() succeeded on a broken connection")
	}
	if f.store.offers[offer.ID].IsSent {
		t.Fatal("is_sent set although nothing was delivered")
	}

	f.sender.setFail(false)
	if err := f.catchUp.Replay(f.ctx, registry.TopicOffers, m.traveler, handle); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	msgs := f.sender.to(handle)
	if len(msgs) != 1 || msgs[0].Type != notifications.EventOffersPending {
		t.Fatalf("got %+v, want one offers_pending batch", msgs)
	}
	if !f.store.offers[offer.ID].IsSent {
		t.Error("is_sent not set after delivery")
	}
}

func TestFailedLivePushIsCaughtUpLater(t *testing.T) {
	f := newFixture(t)
	m := f.newMarket()
	handle := f.connect(registry.TopicOrders, m.vendor)

	f.sender.setFail(true)
	order := f.newOrder(m)
	if f.store.orders[order.ID].IsSent {
		t.Fatal("claim kept after a failed push")
	}

	f.sender.setFail(false)
	if err := f.catchUp.Replay(f.ctx, registry.TopicOrders, m.vendor, handle); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if msgs := f.sender.to(handle); len(msgs) != 1 || msgs[0].Type != notifications.EventOrdersPending {
		t.Fatalf("got %+v, want the order in a catch-up batch", msgs)
	}
}

func TestCatchUpExpiredOffers(t *testing.T) {
	f := newFixture(t)
	m := f.newMarket()
	offer := f.newOffer(m, 300)
	if _, err := f.offers.ExpireOffer(f.ctx, offer.ID); err != nil {
		t.Fatalf("ExpireOffer() error = %v", err)
	}

	handle := f.connect(registry.TopicDeletedOffers, m.traveler)
	if err := f.catchUp.Replay(f.ctx, registry.TopicDeletedOffers, m.traveler, handle); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	msgs := f.sender.to(handle)
	if len(msgs) != 1 || msgs[0].Type != notifications.EventOffersExpired {
		t.Fatalf("got %+v, want one offers_expired", msgs)
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(msgs[0].Payload, &ids); err != nil {
		t.Fatalf("decode ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != offer.ID {
		t.Errorf("ids = %v, want [%s]", ids, offer.ID)
	}
}

func TestCatchUpExpiredOrders(t *testing.T) {
	f := newFixture(t)
	m := f.newMarket()
	order := f.newOrder(m)
	if _, err := f.orders.ExpireOrder(f.ctx, order.ID); err != nil {
		t.Fatalf("ExpireOrder() error = %v", err)
	}
	rejected := f.newOrder(m)
	if err := f.orders.RejectOrder(f.ctx, m.vendor, rejected.ID); err != nil {
		t.Fatalf("RejectOrder() error = %v", err)
	}

	handle := f.connect(registry.TopicDeletedOrders, m.vendor)
	if err := f.catchUp.Replay(f.ctx, registry.TopicDeletedOrders, m.vendor, handle); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	msgs := f.sender.to(handle)
	if len(msgs) != 1 || msgs[0].Type != notifications.EventOrdersExpired {
		t.Fatalf("got %+v, want one orders_expired", msgs)
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(msgs[0].Payload, &ids); err != nil {
		t.Fatalf("decode ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != order.ID {
		t.Errorf("ids = %v, want only the expired order", ids)
	}
}

func TestCatchUpUnknownTopic(t *testing.T) {
	f := newFixture(t)
	err := f.catchUp.Replay(f.ctx, registry.Topic("gossip"), uuid.New(), "node-1/c")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Replay() error = %v, want validation", err)
	}
}
