// Package ocr defines the text recognition collaborator used by the scan
// pipeline. Recognition itself happens in an external service; this package
// only carries the call.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/medminder/go-mas/pkg/circuitbreaker"
)

// Client recognizes text in a prescription image
type Client interface {
	Recognize(ctx context.Context, imageURL string) (string, error)
}

// Config holds OCR service configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient calls an external OCR service through a circuit breaker
type HTTPClient struct {
	cfg     Config
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPClient creates a new HTTP OCR client
func NewHTTPClient(cfg Config, breakers *circuitbreaker.Manager, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	breaker, err := breakers.GetOrCreate("ocr-service", circuitbreaker.DefaultConfig("ocr-service"))
	if err != nil {
		return nil, fmt.Errorf("create ocr breaker: %w", err)
	}

	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}, nil
}

type recognizeRequest struct {
	ImageURL string `json:"image_url"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize sends the image to the OCR service and returns the recognized text
func (c *HTTPClient) Recognize(ctx context.Context, imageURL string) (string, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.recognize(ctx, imageURL)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *HTTPClient) recognize(ctx context.Context, imageURL string) (string, error) {
	body, err := json.Marshal(recognizeRequest{ImageURL: imageURL})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/recognize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr service returned %d", resp.StatusCode)
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}

	c.logger.Debug("recognized prescription text",
		zap.String("image_url", imageURL),
		zap.Int("text_len", len(out.Text)))
	return out.Text, nil
}
