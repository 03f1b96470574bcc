package handlers

import (
	"context"

	"github.com/anjiri1684/houserent/middleware"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	localPrincipal = "principal"
	localTopic     = "topic"
)

// Attacher is the part of the hub the websocket endpoint needs.
type Attacher interface {
	Attach(topic registry.Topic, identity string, conn websocket.Conn) *websocket.Client
	Detach(c *websocket.Client)
}

// topicRoles lists who may subscribe to each topic.
var topicRoles = map[registry.Topic][]string{
	registry.TopicOrders:        {middleware.RoleVendor},
	registry.TopicDeletedOrders: {middleware.RoleVendor},
	registry.TopicOffers:        {middleware.RoleTraveler},
	registry.TopicDeletedOffers: {middleware.RoleTraveler, middleware.RoleVendor},
	registry.TopicPaymentStatus: {middleware.RoleTraveler},
}

// UpgradeWs authenticates the ?token= of a websocket handshake and checks
// the caller may follow the topic.
func (h *Handler) UpgradeWs(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	topic, ok := registry.ParseTopic(c.Params("topic"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Unknown topic")
	}
	p, err := middleware.ParseToken(h.JWTSecret, c.Query("token"))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired JWT")
	}
	if !allowed(topic, p.Role) {
		return fiber.NewError(fiber.StatusForbidden, "Forbidden: topic not available for role "+p.Role)
	}

	c.Locals(localPrincipal, p)
	c.Locals(localTopic, topic)
	return c.Next()
}

func allowed(topic registry.Topic, role string) bool {
	for _, r := range topicRoles[topic] {
		if r == role {
			return true
		}
	}
	return false
}

// ServeWs registers the connection, replays the topic backlog and then only
// reads to notice the disconnect. Clients never send anything meaningful.
func (h *Handler) ServeWs(conn *websocketcontrib.Conn) {
	p, _ := conn.Locals(localPrincipal).(middleware.Principal)
	topic, _ := conn.Locals(localTopic).(registry.Topic)
	identity := p.UserID.String()
	fields := logrus.Fields{"topic": topic, "identity": identity}
	ctx := context.Background()

	client := h.Hub.Attach(topic, identity, conn)
	handle := client.Handle()
	defer func() {
		if err := h.Registry.Unregister(ctx, topic, identity, handle); err != nil {
			h.Log.WithError(err).WithFields(fields).Warn("unregister connection")
		}
		h.Hub.Detach(client)
		conn.Close()
	}()

	if err := h.Registry.Register(ctx, topic, identity, handle); err != nil {
		h.Log.WithError(err).WithFields(fields).Error("register connection")
		return
	}

	if p.Role == middleware.RoleTraveler || topic == registry.TopicOrders || topic == registry.TopicDeletedOrders {
		if err := h.CatchUp.Replay(ctx, topic, p.UserID, handle); err != nil {
			h.Log.WithError(err).WithFields(fields).Warn("catch-up failed, backlog kept for the next connect")
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				h.Log.WithFields(fields).Debug("WebSocket closed")
			} else {
				h.Log.WithError(err).WithFields(fields).Debug("WebSocket read error")
			}
			return
		}
	}
}
