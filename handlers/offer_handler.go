package handlers

import (
	"github.com/anjiri1684/houserent/repository"
	"github.com/anjiri1684/houserent/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateOffer(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c, "orderId")
	if err != nil {
		return err
	}
	var in services.OfferInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	offer, err := h.Offers.CreateOffer(c.UserContext(), vendorID, orderID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(offer)
}

func (h *Handler) GetOffer(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "offerId")
	if err != nil {
		return err
	}
	offer, err := h.Offers.GetOffer(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(offer)
}

func (h *Handler) AcceptOffer(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "offerId")
	if err != nil {
		return err
	}
	offer, err := h.Offers.AcceptOffer(c.UserContext(), travelerID, id)
	if err != nil {
		return err
	}
	return c.JSON(offer)
}

func (h *Handler) RejectOffer(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "offerId")
	if err != nil {
		return err
	}
	if err := h.Offers.RejectOffer(c.UserContext(), travelerID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TravelerOffers lists pending, active or past offers; ?date= bounds the
// active and past views by the end of the stay.
func (h *Handler) TravelerOffers(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	filter := repository.OfferFilter{Status: repository.OfferStatus(c.Query("status", string(repository.OffersPending)))}
	switch filter.Status {
	case repository.OffersPending:
	case repository.OffersActive, repository.OffersPast:
		if filter.Date, err = queryDate(c); err != nil {
			return err
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, "status must be pending, active or past")
	}

	offers, err := h.Offers.TravelerOffers(c.UserContext(), travelerID, filter)
	if err != nil {
		return err
	}
	return c.JSON(offers)
}
