package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/pkg/config"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

// Client sends renewal notices through an HTTP SMS gateway.
type Client struct {
	cfg    config.SMSConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a gateway client from config.
func NewClient(cfg config.SMSConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type sendPayload struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// SendRenewalNotice delivers the renewal reminder for a student. A gateway
// failure is returned as a transport error; the caller treats it as a soft
// warning and never rolls back the write that triggered it.
func (c *Client) SendRenewalNotice(ctx context.Context, studentName, phone, className string) error {
	if !c.cfg.Enabled {
		c.logger.Debug("sms disabled, skipping renewal notice", zap.String("student", studentName))
		return nil
	}
	if phone == "" {
		return appErrors.Clone(appErrors.ErrTransport, fmt.Sprintf("no phone number on file for %s", studentName))
	}

	payload := sendPayload{
		Sender:    c.cfg.SenderLine,
		Recipient: phone,
		Message:   fmt.Sprintf("%s عزیز، ترم کلاس %s شما رو به پایان است. لطفا برای تمدید اقدام کنید.", studentName, className),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "encode sms payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "build sms request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, fmt.Sprintf("send renewal notice to %s", studentName))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErrors.Clone(appErrors.ErrTransport, fmt.Sprintf("sms gateway returned %d for %s", resp.StatusCode, studentName))
	}
	return nil
}
