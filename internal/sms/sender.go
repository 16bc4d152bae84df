package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Sender delivers a text message and returns the provider message ID
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// ProviderError is a rejected send. Status is the HTTP status the provider
// answered with.
type ProviderError struct {
	Provider string
	Status   int
	Code     string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s rejected message (%d %s): %s", e.Provider, e.Status, e.Code, e.Message)
}

// StatusFor maps a send error to the status and message returned to clients.
// Client-side rejections (bad number and so on) pass through.
func StatusFor(err error) (int, string) {
	if errors.Is(err, ErrInvalidPhone) {
		return http.StatusBadRequest, "Invalid phone number"
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Status >= 400 && pe.Status < 500 {
		return http.StatusBadRequest, pe.Message
	}
	return http.StatusInternalServerError, "Failed to send message"
}

// NormalizePhone converts a user-entered number to E.164. Bare 10-digit
// numbers are taken as North American.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")

	var digits strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.' || r == '+':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
		}
	}

	d := digits.String()
	switch {
	case plus && len(d) >= 8 && len(d) <= 15:
		return "+" + d, nil
	case !plus && len(d) == 10:
		return "+1" + d, nil
	case !plus && len(d) == 11 && d[0] == '1':
		return "+" + d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
}

// LogSender only logs messages. Used when no provider is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) (string, error) {
	s.logger.Info("SMS not sent, no provider configured",
		zap.String("to", to),
		zap.Int("length", len(body)))
	return "", nil
}
