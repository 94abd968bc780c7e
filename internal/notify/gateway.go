// Package notify defines the notification delivery collaborator. Actual
// voice/text/push delivery happens in an external gateway service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notification is one delivery request
type Notification struct {
	UserID       string `json:"user_id"`
	MedicineName string `json:"medicine_name"`
	Slot         string `json:"slot"`
	Message      string `json:"message"`
	Channel      string `json:"channel"` // voice, text or push
}

// Gateway delivers reminder notifications
type Gateway interface {
	Send(ctx context.Context, n Notification) error
}

// Config holds gateway configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPGateway calls an external notification service
type HTTPGateway struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewHTTPGateway creates a new HTTP gateway
func NewHTTPGateway(cfg Config, logger *zap.Logger) *HTTPGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPGateway{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Send delivers one notification through the gateway
func (g *HTTPGateway) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", g.cfg.APIKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("notification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway returned %d", resp.StatusCode)
	}

	g.logger.Debug("notification sent",
		zap.String("user_id", n.UserID),
		zap.String("medicine", n.MedicineName),
		zap.String("channel", n.Channel))
	return nil
}

// LogGateway logs notifications instead of delivering them. Used in
// development when no gateway is configured.
type LogGateway struct {
	logger *zap.Logger
}

// NewLogGateway creates a log-only gateway
func NewLogGateway(logger *zap.Logger) *LogGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogGateway{logger: logger}
}

// Send logs the notification
func (g *LogGateway) Send(_ context.Context, n Notification) error {
	g.logger.Info("notification (log only)",
		zap.String("user_id", n.UserID),
		zap.String("medicine", n.MedicineName),
		zap.String("slot", n.Slot),
		zap.String("message", n.Message))
	return nil
}
