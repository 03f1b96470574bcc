// Package registry maps an identity to its live connection handle per topic.
package registry

import (
	"context"
	"errors"
	"strings"
)

type Topic string

const (
	TopicOrders        Topic = "orders"
	TopicDeletedOrders Topic = "deleted_orders"
	TopicOffers        Topic = "offers"
	TopicDeletedOffers Topic = "deleted_offers"
	TopicPaymentStatus Topic = "payment_status"
)

var Topics = []Topic{TopicOrders, TopicDeletedOrders, TopicOffers, TopicDeletedOffers, TopicPaymentStatus}

var ErrMalformedHandle = errors.New("malformed connection handle")

func ParseTopic(s string) (Topic, bool) {
	for _, t := range Topics {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Registry is shared by every process of the deployment. Registering again
// for the same topic and identity replaces the previous handle.
type Registry interface {
	Register(ctx context.Context, topic Topic, identity, handle string) error
	// Unregister removes the entry only while it still points at handle, so a
	// late disconnect cannot drop a newer connection.
	Unregister(ctx context.Context, topic Topic, identity, handle string) error
	Lookup(ctx context.Context, topic Topic, identity string) (handle string, ok bool, err error)
}

// Handle joins the owning node and the connection id.
func Handle(nodeID, connID string) string {
	return nodeID + "/" + connID
}

func SplitHandle(handle string) (nodeID, connID string, err error) {
	nodeID, connID, found := strings.Cut(handle, "/")
	if !found || nodeID == "" || connID == "" {
		return "", "", ErrMalformedHandle
	}
	return nodeID, connID, nil
}
