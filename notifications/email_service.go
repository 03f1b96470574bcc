package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/sirupsen/logrus"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string

	endpoint string
	client   *http.Client
	log      *logrus.Logger
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewBrevoService returns nil when the mail settings are incomplete.
func NewBrevoService(apiKey, senderEmail, senderName string, log *logrus.Logger) *BrevoService {
	if apiKey == "" || senderEmail == "" || senderName == "" {
		log.Warn("⚠️ Email service not configured. Missing API Key, Sender Email, or Sender Name.")
		return nil
	}

	log.Info("✅ Email service initialized successfully.")
	return &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		endpoint:    brevoEndpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

func (s *BrevoService) send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to send email via Brevo: status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// SendBookingConfirmation mails the booking contact of a paid offer.
func (s *BrevoService) SendBookingConfirmation(ctx context.Context, offer *models.TravelOffer) error {
	if offer.Email == nil {
		return fmt.Errorf("offer %s has no contact email", offer.ID)
	}

	name := strings.TrimSpace(deref(offer.FirstName) + " " + deref(offer.LastName))
	subject := fmt.Sprintf("Booking #%d confirmed", offer.OrderNumber)

	var stay, object string
	if offer.Order != nil {
		if td := offer.Order.TravelDetail; td != nil {
			stay = fmt.Sprintf("%s - %s", td.StartDate.Format("02.01.2006"), td.EndDate.Format("02.01.2006"))
		}
		if mo := offer.Order.MatchObject; mo != nil {
			object = mo.Name
		}
	}

	content := fmt.Sprintf(
		"<p>Hello %s,</p><p>your booking <b>#%d</b> %s is paid.</p><p>Dates: %s<br>Price: %d</p>",
		html.EscapeString(name), offer.OrderNumber, html.EscapeString(object), stay, offer.Price,
	)

	if err := s.send(ctx, *offer.Email, name, subject, content); err != nil {
		s.log.WithError(err).WithField("offer_id", offer.ID).Error("🔥 Failed to send booking confirmation")
		return err
	}

	s.log.WithField("offer_id", offer.ID).Info("✅ Booking confirmation sent")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
