package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// ClientConfig tunes the HTTP client shared by the venue adapters.
type ClientConfig struct {
	// Timeout bounds one request end to end. Keep it under the tick
	// interval so a hung venue cannot stall shutdown past one tick.
	Timeout      time.Duration
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RetryMax     int
}

// DefaultClientConfig returns the production client settings.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:      8 * time.Second,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 2 * time.Second,
		RetryMax:     1,
	}
}

// Client is the retrying HTTP client every adapter shares.
type Client struct {
	http *retryablehttp.Client
}

// NewClient builds the shared client. A nil cfg uses the defaults; a
// nil logger silences the transport's own retry logging.
func NewClient(cfg *ClientConfig, log *logging.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.RetryMax = cfg.RetryMax
	if log != nil {
		rc.Logger = retryLogger{log: log}
	} else {
		rc.Logger = nil
	}

	return &Client{http: rc}
}

// getJSON fetches a URL and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// retryLogger adapts the package logger to retryablehttp's leveled
// logging interface.
type retryLogger struct {
	log *logging.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn(msg, keysAndValues...)
}
