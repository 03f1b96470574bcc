package routes

import (
	"github.com/anjiri1684/houserent/handlers"
	"github.com/anjiri1684/houserent/middleware"
	"github.com/gofiber/fiber/v2"
)

func VendorRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	vendor := api.Group("/vendor", middleware.Protected(secret), middleware.VendorRequired())
	vendor.Get("/orders", h.VendorOrders)
	vendor.Get("/orders/:orderId", h.GetOrder)
	vendor.Post("/orders/:orderId/approve", h.ApproveOrder)
	vendor.Post("/orders/:orderId/reject", h.RejectOrder)
	vendor.Post("/orders/:orderId/offers", h.CreateOffer)
	vendor.Get("/offers/:offerId", h.GetOffer)

	vendor.Post("/objects", h.CreateObject)
	vendor.Put("/objects/:objectId/prices", h.ReplacePrices)
}
