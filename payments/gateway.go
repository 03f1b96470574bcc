package payments

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	initScript   = "init_payment.php"
	statusScript = "get_status2.php"
	resultScript = "result"
)

var ErrRejected = errors.New("payment gateway rejected the request")

type Gateway interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error)
	GetStatus(ctx context.Context, orderID, paymentID, salt string) (*Status, error)
	VerifyResult(res Result) bool
	Answer(success bool) ([]byte, error)
}

type LinkRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Description string
	Salt        string
	ResultURL   string
}

type Link struct {
	XMLName     xml.Name `xml:"response" json:"-"`
	Status      string   `xml:"pg_status" json:"pg_status"`
	PaymentID   string   `xml:"pg_payment_id" json:"pg_payment_id"`
	RedirectURL string   `xml:"pg_redirect_url" json:"pg_redirect_url"`
	Error       string   `xml:"pg_error_description" json:"pg_error_description,omitempty"`
}

type Status struct {
	XMLName            xml.Name `xml:"response"`
	Status             string   `xml:"pg_status"`
	PaymentStatus      string   `xml:"pg_payment_status"`
	Currency           string   `xml:"pg_currency"`
	Amount             string   `xml:"pg_amount"`
	CardPan            string   `xml:"pg_card_pan"`
	FailureDescription string   `xml:"pg_failure_description"`
}

// Result is the callback the gateway posts to the result URL.
type Result struct {
	OrderID     string `form:"pg_order_id" json:"pg_order_id" validate:"required"`
	PaymentID   string `form:"pg_payment_id" json:"pg_payment_id" validate:"required"`
	Salt        string `form:"pg_salt" json:"pg_salt"`
	Sig         string `form:"pg_sig" json:"pg_sig"`
	PaymentDate string `form:"pg_payment_date" json:"pg_payment_date"`
	Result      string `form:"pg_result" json:"pg_result" validate:"required,oneof=0 1"`
}

func (r Result) Succeeded() bool {
	return r.Result == "1"
}

func (r Result) params() map[string]string {
	return map[string]string{
		"pg_order_id":     r.OrderID,
		"pg_payment_id":   r.PaymentID,
		"pg_salt":         r.Salt,
		"pg_payment_date": r.PaymentDate,
		"pg_result":       r.Result,
	}
}

type answer struct {
	XMLName     xml.Name `xml:"response"`
	Status      string   `xml:"pg_status"`
	Description string   `xml:"pg_description"`
	Salt        string   `xml:"pg_salt"`
	Sig         string   `xml:"pg_sig"`
}

type Config struct {
	BaseURL     string
	MerchantID  string
	TestingMode bool
}

// Client talks to the PayBox/FreedomPay style HTTP API.
type Client struct {
	cfg    Config
	signer Signer
	http   *http.Client
	log    *logrus.Logger
}

func NewClient(cfg Config, signer Signer, log *logrus.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		signer: signer,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (c *Client) testingMode() string {
	if c.cfg.TestingMode {
		return "1"
	}
	return "0"
}

func (c *Client) CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error) {
	params := map[string]string{
		"pg_order_id":     req.OrderID,
		"pg_merchant_id":  c.cfg.MerchantID,
		"pg_amount":       req.Amount.StringFixed(2),
		"pg_description":  req.Description,
		"pg_salt":         req.Salt,
		"pg_result_url":   req.ResultURL,
		"pg_testing_mode": c.testingMode(),
	}

	var link Link
	if err := c.post(ctx, initScript, params, &link); err != nil {
		return nil, err
	}
	if link.Status != "ok" {
		return &link, fmt.Errorf("%w: %s", ErrRejected, link.Error)
	}
	return &link, nil
}

func (c *Client) GetStatus(ctx context.Context, orderID, paymentID, salt string) (*Status, error) {
	params := map[string]string{
		"pg_merchant_id": c.cfg.MerchantID,
		"pg_payment_id":  paymentID,
		"pg_order_id":    orderID,
		"pg_salt":        salt,
	}

	var status Status
	if err := c.post(ctx, statusScript, params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) VerifyResult(res Result) bool {
	return c.signer.Sign(resultScript, res.params()) == res.Sig
}

// Answer is the signed XML body the gateway expects back from the result URL.
func (c *Client) Answer(success bool) ([]byte, error) {
	a := answer{Status: "rejected", Description: "Payment rejected", Salt: "Not paid"}
	if success {
		a = answer{Status: "ok", Description: "Order paid", Salt: "Thank you for your purchase"}
	}
	a.Sig = c.signer.Sign(resultScript, map[string]string{
		"pg_status":      a.Status,
		"pg_description": a.Description,
		"pg_salt":        a.Salt,
	})
	return xml.Marshal(a)
}

func (c *Client) post(ctx context.Context, script string, params map[string]string, out interface{}) error {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("pg_sig", c.signer.Sign(script, params))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+script, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", script, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", script, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", script, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{"script": script, "status": resp.StatusCode}).Error("payment gateway error")
		return fmt.Errorf("%s returned status %d", script, resp.StatusCode)
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", script, err)
	}
	return nil
}
