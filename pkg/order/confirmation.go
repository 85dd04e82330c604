package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chriscow/cinema-kiosk-go/pkg/version"
)

// DefaultWebhookURL receives order confirmations and relays them to WhatsApp.
const DefaultWebhookURL = "https://workflows.cekat.ai/webhook/xxi"

var (
	ErrMissingPhone = errors.New("order: receiver phone number is required")
	ErrMissingMovie = errors.New("order: movie name and showtime are required")
)

// Confirmation is the webhook payload.
type Confirmation struct {
	ReceiverPhoneNumber string `json:"receiverPhoneNumber"`
	MovieName           string `json:"movieName"`
	MovieShowtime       string `json:"movieShowtime"`
	CartItems           string `json:"cartItems"`
}

// NewConfirmation builds the webhook payload for a composed order.
func NewConfirmation(phone string, s Summary) Confirmation {
	return Confirmation{
		ReceiverPhoneNumber: strings.TrimSpace(phone),
		MovieName:           s.MovieName,
		MovieShowtime:       s.Showtime,
		CartItems:           s.CartItemsSummary(),
	}
}

// Validate checks the fields the webhook requires.
func (c Confirmation) Validate() error {
	if c.ReceiverPhoneNumber == "" {
		return ErrMissingPhone
	}
	if c.MovieName == "" || c.MovieName == NotAvailable || c.MovieShowtime == "" || c.MovieShowtime == NotAvailable {
		return ErrMissingMovie
	}
	return nil
}

// HTTPStatusError reports a non-success webhook response.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("order: webhook %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("order: webhook %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// HTTPStatusCode returns the response status.
func (e *HTTPStatusError) HTTPStatusCode() int { return e.StatusCode }

// WebhookSender posts confirmations to the webhook.
type WebhookSender struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a WebhookSender.
type Option func(*WebhookSender)

// WithWebhookURL overrides DefaultWebhookURL.
func WithWebhookURL(u string) Option {
	return func(s *WebhookSender) {
		if u != "" {
			s.url = u
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *WebhookSender) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// NewWebhookSender creates a sender.
func NewWebhookSender(logger *slog.Logger, opts ...Option) *WebhookSender {
	if logger == nil {
		logger = slog.Default()
	}
	s := &WebhookSender{
		url:        DefaultWebhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send validates and posts a confirmation.
func (s *WebhookSender) Send(ctx context.Context, c Confirmation) error {
	if err := c.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("order: encode confirmation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("order: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order: send confirmation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: s.url, Body: strings.TrimSpace(string(b))}
	}

	s.logger.Info("Order confirmation sent",
		slog.String("movie", c.MovieName),
		slog.String("showtime", c.MovieShowtime))
	return nil
}
