package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"p9e.in/sitelog/config"
)

// WhatsAppNotifier sends alerts through the Twilio Messages API.
type WhatsAppNotifier struct {
	httpClient *resty.Client
	cfg        config.TwilioConfig
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewWhatsAppNotifier(cfg config.TwilioConfig) *WhatsAppNotifier {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json")
	return &WhatsAppNotifier{httpClient: client, cfg: cfg}
}

func (w *WhatsAppNotifier) Name() string { return "whatsapp" }

// Notify sends one message per recipient and stops at the first failure.
func (w *WhatsAppNotifier) Notify(ctx context.Context, msg Message) error {
	body := fmt.Sprintf("🚨 ALERT [%s] - %s\n%s", msg.Type, msg.Project, msg.Text)
	for _, to := range w.cfg.To {
		var apiErr twilioError
		resp, err := w.httpClient.R().
			SetContext(ctx).
			SetPathParam("sid", w.cfg.AccountSID).
			SetFormData(map[string]string{
				"From": w.cfg.From,
				"To":   to,
				"Body": body,
			}).
			SetError(&apiErr).
			Post("/2010-04-01/Accounts/{sid}/Messages.json")
		if err != nil {
			return fmt.Errorf("twilio request: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("twilio API error: status %d: %s (code %d)", resp.StatusCode(), apiErr.Message, apiErr.Code)
		}
	}
	return nil
}
