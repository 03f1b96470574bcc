package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/payments"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const paymentDateLayout = "2006-01-02 15:04:05"

type PaymentLink struct {
	TransactionID uuid.UUID      `json:"transaction_id"`
	Link          *payments.Link `json:"payment_link"`
}

// PaymentStatus is pushed to the traveler on the payment_status topic.
type PaymentStatus struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	OfferID       uuid.UUID `json:"travel_offer"`
	Status        string    `json:"status"`
}

type PaymentService struct {
	offers       repository.OfferStore
	transactions repository.TransactionStore
	offerSvc     *OfferService
	gateway      payments.Gateway
	notifier     Notifier
	mailer       Mailer
	resultURL    string
	log          *logrus.Logger
}

func NewPaymentService(offers repository.OfferStore, transactions repository.TransactionStore, offerSvc *OfferService, gateway payments.Gateway, notifier Notifier, mailer Mailer, resultURL string, log *logrus.Logger) *PaymentService {
	return &PaymentService{
		offers:       offers,
		transactions: transactions,
		offerSvc:     offerSvc,
		gateway:      gateway,
		notifier:     notifier,
		mailer:       mailer,
		resultURL:    resultURL,
		log:          log,
	}
}

// InitPayment stores the booking contact on an accepted offer, opens its
// transaction and asks the gateway for a payment link.
func (s *PaymentService) InitPayment(ctx context.Context, travelerID uuid.UUID, in PaymentInput) (*PaymentLink, error) {
	offer, err := s.offers.GetOffer(ctx, in.OfferID)
	if err != nil {
		return nil, lookupErr("offer", err)
	}
	if offer.Order == nil || orderTraveler(offer.Order) != travelerID {
		return nil, forbidden("offer belongs to another traveler")
	}
	if offer.Settled() {
		return nil, ErrOfferSettled
	}
	if !offer.Accepted() {
		return nil, ErrOfferNotAccepted
	}

	err = s.offers.UpdateOfferContact(ctx, offer.ID, repository.Contact{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("store booking contact: %w", err)
	}

	currency := "KZT"
	if offer.Order.MatchObject != nil && offer.Order.MatchObject.Currency != "" {
		currency = offer.Order.MatchObject.Currency
	}
	tx, err := s.transactions.GetOrCreateTransaction(ctx, &models.Transaction{
		UserID:        travelerID,
		TravelOfferID: offer.ID,
		Amount:        decimal.NewFromInt(offer.Price),
		Currency:      currency,
		Description:   fmt.Sprintf("Booking #%d", offer.OrderNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("open transaction: %w", err)
	}

	link, err := s.gateway.CreatePaymentLink(ctx, payments.LinkRequest{
		OrderID:     tx.ID.String(),
		Amount:      tx.Amount,
		Description: tx.Description,
		Salt:        in.Email,
		ResultURL:   s.resultURL,
	})
	if err != nil {
		s.log.WithError(err).WithField("transaction_id", tx.ID).Error("🔥 payment link request failed")
		return nil, ErrPaymentGatewayErr
	}
	return &PaymentLink{TransactionID: tx.ID, Link: link}, nil
}

// HandleResult applies a gateway callback. The first result recorded on a
// transaction wins; later callbacks only finish settling the offer if an
// earlier attempt failed half way.
func (s *PaymentService) HandleResult(ctx context.Context, res payments.Result) (*models.Transaction, error) {
	txID, err := uuid.Parse(res.OrderID)
	if err != nil {
		return nil, validationError("invalid_order_id", "pg_order_id is not a transaction id")
	}
	if !s.gateway.VerifyResult(res) {
		return nil, ErrInvalidSignature
	}

	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return nil, lookupErr("transaction", err)
	}
	if !tx.Settled() {
		s.apply(ctx, tx, res)
		won, err := s.transactions.SaveTransactionResult(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("save payment result: %w", err)
		}
		if !won {
			if tx, err = s.transactions.GetTransaction(ctx, txID); err != nil {
				return nil, lookupErr("transaction", err)
			}
		}
	}

	if err := s.settleOffer(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// settleOffer carries a recorded result over to the offer. It is a no-op
// once the offer is settled, and a storage failure leaves the offer open for
// the gateway's next callback.
func (s *PaymentService) settleOffer(ctx context.Context, tx *models.Transaction) error {
	offer, err := s.offers.GetOffer(ctx, tx.TravelOfferID)
	if err != nil {
		return lookupErr("offer", err)
	}
	if offer.Settled() {
		return nil
	}

	success := tx.Result == models.ResultSuccess
	if err := s.offerSvc.MarkPaid(ctx, tx.TravelOfferID, success); err != nil {
		var svcErr *Error
		if !errors.As(err, &svcErr) {
			return err
		}
		// the result stays recorded on the transaction even if the offer moved on
		s.log.WithError(err).WithField("transaction_id", tx.ID).Warn("offer not settled")
		s.pushStatus(ctx, tx)
		return nil
	}

	s.pushStatus(ctx, tx)

	if success && s.mailer != nil {
		paid := true
		offer.IsPayed = &paid
		go s.mailer.SendBookingConfirmation(context.Background(), offer)
	}
	return nil
}

func (s *PaymentService) apply(ctx context.Context, tx *models.Transaction, res payments.Result) {
	tx.Result = models.ResultFailure
	if res.Succeeded() {
		tx.Result = models.ResultSuccess
	}
	tx.PaymentID = strPtr(res.PaymentID)
	tx.Salt = strPtr(res.Salt)
	tx.Sig = strPtr(res.Sig)
	if d, err := time.Parse(paymentDateLayout, res.PaymentDate); err == nil {
		tx.PaymentDate = &d
	}

	status, err := s.gateway.GetStatus(ctx, res.OrderID, res.PaymentID, res.Salt)
	if err != nil {
		s.log.WithError(err).WithField("transaction_id", tx.ID).Warn("payment status lookup failed")
		return
	}
	tx.Status = strPtr(status.PaymentStatus)
	tx.CardPan = strPtr(status.CardPan)
	tx.FailureDescription = strPtr(status.FailureDescription)
	if status.Currency != "" {
		tx.Currency = status.Currency
	}
	if amount, err := decimal.NewFromString(status.Amount); err == nil {
		tx.Amount = amount
	}
}

func (s *PaymentService) pushStatus(ctx context.Context, tx *models.Transaction) {
	msg := notifications.Message{
		Type:    notifications.EventPaymentStatus,
		Payload: PaymentStatus{TransactionID: tx.ID, OfferID: tx.TravelOfferID, Status: tx.Result},
	}
	claim := &notifications.Claim{
		Acquire: func(ctx context.Context) (bool, error) { return s.transactions.ClaimTransactionSent(ctx, tx.ID) },
		Release: func(ctx context.Context) error { return s.transactions.ReleaseTransactionSent(ctx, tx.ID) },
	}
	if _, err := s.notifier.Deliver(ctx, registry.TopicPaymentStatus, tx.UserID.String(), msg, claim); err != nil {
		s.log.WithError(err).WithField("transaction_id", tx.ID).Warn("payment status push failed")
	}
}

// Answer renders the reply the gateway expects for a recorded result.
func (s *PaymentService) Answer(tx *models.Transaction) ([]byte, error) {
	return s.gateway.Answer(tx.Result == models.ResultSuccess)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
