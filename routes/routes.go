package routes

import (
	"github.com/anjiri1684/houserent/handlers"
	"github.com/gofiber/fiber/v2"
)

// Register mounts every API route on app.
func Register(app *fiber.App, h *handlers.Handler, secret string) {
	PublicRoutes(app, h)
	TravelRoutes(app, h, secret)
	VendorRoutes(app, h, secret)
	PaymentRoutes(app, h, secret)
	MessagingRoutes(app, h)
}
