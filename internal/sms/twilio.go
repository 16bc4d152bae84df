package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

type TwilioConfig struct {
	AccountSID string        `json:"account_sid"`
	AuthToken  string        `json:"auth_token"`
	From       string        `json:"from"`
	BaseURL    string        `json:"base_url"`
	Timeout    time.Duration `json:"timeout"`
}

// TwilioSender sends through the Twilio Messages API with basic auth and a
// form-encoded body.
type TwilioSender struct {
	cfg        TwilioConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewTwilioSender(cfg TwilioConfig, logger *zap.Logger) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwilioSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read twilio response: %w", err)
	}

	var out twilioResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		pe := &ProviderError{
			Provider: "twilio",
			Status:   resp.StatusCode,
			Message:  out.Message,
		}
		if out.Code != 0 {
			pe.Code = strconv.Itoa(out.Code)
		}
		if pe.Message == "" {
			pe.Message = http.StatusText(resp.StatusCode)
		}
		s.logger.Warn("Twilio rejected message",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", pe.Code),
			zap.String("message", pe.Message))
		return "", pe
	}

	s.logger.Info("SMS sent",
		zap.String("provider", "twilio"),
		zap.String("sid", out.SID),
		zap.String("status", out.Status))
	return out.SID, nil
}
