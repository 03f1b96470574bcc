package handlers

import (
	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/services"
	"github.com/gofiber/fiber/v2"
)

type CreateTravelResponse struct {
	Travel  *models.TravelDetail `json:"travel"`
	Orders  []models.Order       `json:"orders"`
	Matched int                  `json:"matched"`
}

func (h *Handler) CreateTravel(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	var in services.TravelInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	td, orders, err := h.Travels.CreateTravel(c.UserContext(), travelerID, in)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.Status(fiber.StatusCreated).JSON(CreateTravelResponse{Travel: td, Orders: orders, Matched: len(orders)})
}

func (h *Handler) GetTravel(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "travelId")
	if err != nil {
		return err
	}
	td, err := h.Travels.GetTravel(c.UserContext(), travelerID, id)
	if err != nil {
		return err
	}
	return c.JSON(td)
}

func (h *Handler) DeleteTravel(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "travelId")
	if err != nil {
		return err
	}
	if err := h.Travels.DeleteTravel(c.UserContext(), travelerID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) CancelSearch(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	summary, err := h.Travels.CancelSearch(c.UserContext(), travelerID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
