package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anjiri1684/houserent/registry"
	"github.com/sirupsen/logrus"
)

type Event string

const (
	EventOrderCreated  Event = "order_created"
	EventOrdersPending Event = "orders_pending"
	EventOrderExpired  Event = "order_expired"
	EventOrdersExpired Event = "orders_expired"
	EventOfferCreated  Event = "offer_created"
	EventOffersPending Event = "offers_pending"
	EventOfferExpired  Event = "offer_expired"
	EventOffersExpired Event = "offers_expired"
	EventPaymentStatus Event = "payment_status"
)

type Message struct {
	Type    Event       `json:"type"`
	Payload interface{} `json:"payload"`
}

// Sender writes an encoded message to the connection behind a handle.
type Sender interface {
	Send(ctx context.Context, handle string, payload []byte) error
}

// Claim guards a push with a persisted delivery flag. Acquire flips the flag
// and reports whether this caller owns the delivery; Release undoes it.
type Claim struct {
	Acquire func(ctx context.Context) (bool, error)
	Release func(ctx context.Context) error
}

// Dispatcher pushes messages to whichever connection an identity has
// registered for a topic. Nobody connected means nothing is sent.
type Dispatcher struct {
	registry registry.Registry
	sender   Sender
	log      *logrus.Logger
}

func NewDispatcher(reg registry.Registry, sender Sender, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{registry: reg, sender: sender, log: log}
}

func (d *Dispatcher) Notify(ctx context.Context, topic registry.Topic, identity string, msg Message) (bool, error) {
	return d.Deliver(ctx, topic, identity, msg, nil)
}

// Deliver reports whether msg reached a live connection. A failed write is a
// miss, not an error; the claim is released so catch-up can resend.
func (d *Dispatcher) Deliver(ctx context.Context, topic registry.Topic, identity string, msg Message, claim *Claim) (bool, error) {
	fields := logrus.Fields{"topic": topic, "identity": identity, "event": msg.Type}

	handle, ok, err := d.registry.Lookup(ctx, topic, identity)
	if err != nil {
		return false, err
	}
	if !ok {
		d.log.WithFields(fields).Debug("no live connection, notification dropped")
		return false, nil
	}

	if claim != nil {
		owned, err := claim.Acquire(ctx)
		if err != nil {
			return false, fmt.Errorf("claim delivery: %w", err)
		}
		if !owned {
			return false, nil
		}
	}

	if err := d.SendTo(ctx, handle, msg); err != nil {
		d.log.WithFields(fields).WithError(err).Warn("push failed")
		if claim != nil {
			if relErr := claim.Release(ctx); relErr != nil {
				d.log.WithFields(fields).WithError(relErr).Error("release delivery claim")
			}
		}
		return false, nil
	}
	return true, nil
}

// SendTo writes msg to a known handle and returns the write error.
func (d *Dispatcher) SendTo(ctx context.Context, handle string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	return d.sender.Send(ctx, handle, body)
}
