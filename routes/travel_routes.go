package routes

import (
	"github.com/anjiri1684/houserent/handlers"
	"github.com/anjiri1684/houserent/middleware"
	"github.com/gofiber/fiber/v2"
)

func TravelRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	travels := api.Group("/travels", middleware.Protected(secret), middleware.TravelerRequired())
	travels.Post("", h.CreateTravel)
	travels.Post("/cancel", h.CancelSearch)
	travels.Get("/:travelId", h.GetTravel)
	travels.Delete("/:travelId", h.DeleteTravel)

	offers := api.Group("/offers", middleware.Protected(secret), middleware.TravelerRequired())
	offers.Get("", h.TravelerOffers)
	offers.Get("/:offerId", h.GetOffer)
	offers.Post("/:offerId/accept", h.AcceptOffer)
	offers.Post("/:offerId/reject", h.RejectOffer)
}
