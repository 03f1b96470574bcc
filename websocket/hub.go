package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/anjiri1684/houserent/registry"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const textMessage = 1

var (
	ErrConnectionGone = errors.New("connection is gone")
	ErrNoBus          = errors.New("connection belongs to another node and no bus is configured")
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	ID       uuid.UUID
	Topic    registry.Topic
	Identity string

	hub  *Hub
	conn Conn
	mu   sync.Mutex
}

func (c *Client) Handle() string {
	return registry.Handle(c.hub.nodeID, c.ID.String())
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(textMessage, payload)
}

// frame carries a payload to a connection on another node.
type frame struct {
	ConnID  string          `json:"conn_id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub owns the connections of this node and relays payloads addressed to
// other nodes over the bus.
type Hub struct {
	nodeID string
	bus    Bus
	log    *logrus.Logger

	clientsMu sync.RWMutex
	clients   map[uuid.UUID]*Client
}

func NewHub(nodeID string, bus Bus, log *logrus.Logger) *Hub {
	return &Hub{
		nodeID:  nodeID,
		bus:     bus,
		log:     log,
		clients: make(map[uuid.UUID]*Client),
	}
}

func (h *Hub) NodeID() string {
	return h.nodeID
}

func (h *Hub) Attach(topic registry.Topic, identity string, conn Conn) *Client {
	c := &Client{ID: uuid.New(), Topic: topic, Identity: identity, hub: h, conn: conn}

	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()

	h.log.WithFields(logrus.Fields{"topic": topic, "identity": identity, "conn_id": c.ID}).Info("Client registered")
	return c
}

func (h *Hub) Detach(c *Client) {
	h.clientsMu.Lock()
	if current, ok := h.clients[c.ID]; ok && current == c {
		delete(h.clients, c.ID)
	}
	h.clientsMu.Unlock()

	h.log.WithFields(logrus.Fields{"topic": c.Topic, "identity": c.Identity, "conn_id": c.ID}).Info("Client unregistered")
}

// Send writes payload to the connection behind handle, wherever it lives.
func (h *Hub) Send(ctx context.Context, handle string, payload []byte) error {
	nodeID, connID, err := registry.SplitHandle(handle)
	if err != nil {
		return err
	}
	if nodeID == h.nodeID {
		return h.deliver(connID, payload)
	}
	if h.bus == nil {
		return ErrNoBus
	}
	body, err := json.Marshal(frame{ConnID: connID, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return h.bus.Publish(ctx, nodeID, body)
}

func (h *Hub) deliver(connID string, payload []byte) error {
	id, err := uuid.Parse(connID)
	if err != nil {
		return registry.ErrMalformedHandle
	}

	h.clientsMu.RLock()
	c, ok := h.clients[id]
	h.clientsMu.RUnlock()
	if !ok {
		return ErrConnectionGone
	}

	if err := c.write(payload); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"conn_id": id, "identity": c.Identity}).Warn("Error sending message to client")
		c.conn.Close()
		h.Detach(c)
		return fmt.Errorf("%w: %v", ErrConnectionGone, err)
	}
	return nil
}

// Run relays frames published for this node until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.bus == nil {
		<-ctx.Done()
		return nil
	}

	frames, closeSub, err := h.bus.Subscribe(ctx, h.nodeID)
	if err != nil {
		return err
	}
	defer closeSub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case body, ok := <-frames:
			if !ok {
				return nil
			}
			var f frame
			if err := json.Unmarshal(body, &f); err != nil {
				h.log.WithError(err).Warn("dropping malformed frame")
				continue
			}
			if err := h.deliver(f.ConnID, f.Payload); err != nil {
				h.log.WithError(err).WithField("conn_id", f.ConnID).Debug("relayed frame not delivered")
			}
		}
	}
}
