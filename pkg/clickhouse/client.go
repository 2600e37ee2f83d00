package clickhouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	"github.com/sirupsen/logrus"
)

// Define static errors
var (
	ErrClickHouseResponse = errors.New("clickhouse error")
	ErrMalformedResponse  = errors.New("malformed clickhouse response")
)

// compactResponse represents the JSONCompact response from the ClickHouse HTTP interface
type compactResponse struct {
	Meta []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"meta"`
	Data     [][]json.RawMessage `json:"data"`
	Rows     int                 `json:"rows"`
	RowsRead int                 `json:"rows_read"` //nolint:tagliatelle // ClickHouse API uses snake_case
}

// client implements warehouse.Client using HTTP
type client struct {
	log          logrus.FieldLogger
	httpClient   *http.Client
	endpoint     string
	user         string
	token        string
	debug        bool
	queryTimeout time.Duration
}

// NewClient creates a new HTTP-based ClickHouse client
func NewClient(logger logrus.FieldLogger, cfg *Config) (warehouse.Client, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Create HTTP client with keep-alive settings
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     cfg.KeepAlive,
		DisableKeepAlives:   false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   0, // We'll set per-request timeouts
	}

	return &client{
		log:          logger.WithField("component", "clickhouse-http"),
		httpClient:   httpClient,
		endpoint:     buildEndpoint(cfg),
		user:         cfg.User,
		token:        cfg.Token,
		debug:        cfg.Debug,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// buildEndpoint renders the request URL with read-only and output settings
func buildEndpoint(cfg *Config) string {
	params := url.Values{}

	for k, v := range cfg.Settings {
		params.Set(k, v)
	}

	// readonly=2 forbids writes while still allowing per-query settings
	params.Set("readonly", "2")
	params.Set("output_format_json_quote_64bit_integers", "1")

	if cfg.Database != "" {
		params.Set("database", cfg.Database)
	}

	return strings.TrimRight(cfg.URL, "/") + "/?" + params.Encode()
}

func (c *client) Start(ctx context.Context) error {
	// Test connectivity
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.Query(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	c.log.Info("Connected to ClickHouse HTTP interface")

	return nil
}

func (c *client) Stop() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}

	c.log.Info("Closed ClickHouse HTTP client")

	return nil
}

func (c *client) Query(ctx context.Context, query string) (*frame.Frame, error) {
	body, err := c.executeHTTPRequest(ctx, query+"\nFORMAT JSONCompact")
	if err != nil {
		return nil, err
	}

	var result compactResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, warehouse.NewError(warehouse.KindQuery, fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}

	f, err := decodeFrame(&result)
	if err != nil {
		return nil, warehouse.NewError(warehouse.KindQuery, err)
	}

	return f, nil
}

// decodeFrame converts row-major JSONCompact data into a columnar frame
func decodeFrame(result *compactResponse) (*frame.Frame, error) {
	columns := make([]*frame.Column, len(result.Meta))
	for i, m := range result.Meta {
		columns[i] = &frame.Column{
			Name:   m.Name,
			Kind:   kindOf(m.Type),
			Values: make([]any, 0, len(result.Data)),
		}
	}

	for r, row := range result.Data {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformedResponse, r, len(row), len(columns))
		}

		for i, raw := range row {
			v, err := frame.DecodeValue(columns[i].Kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
			}
			columns[i].Values = append(columns[i].Values, v)
		}
	}

	return frame.New(columns...)
}

// kindOf maps a ClickHouse type name onto a frame kind
func kindOf(chType string) frame.Kind {
	t := chType
	for unwrapped := true; unwrapped; {
		unwrapped = false
		for _, wrapper := range []string{"Nullable(", "LowCardinality("} {
			if strings.HasPrefix(t, wrapper) {
				t = strings.TrimSuffix(strings.TrimPrefix(t, wrapper), ")")
				unwrapped = true
			}
		}
	}

	switch {
	case strings.HasPrefix(t, "Float"), strings.HasPrefix(t, "Decimal"):
		return frame.KindFloat
	case strings.HasPrefix(t, "Int"), strings.HasPrefix(t, "UInt"):
		return frame.KindInt
	default:
		return frame.KindString
	}
}

func (c *client) executeHTTPRequest(ctx context.Context, query string) ([]byte, error) {
	// Create request with timeout
	reqCtx, cancel := context.WithTimeout(ctx, c.getTimeout(ctx))
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, warehouse.NewError(warehouse.KindConnection, fmt.Errorf("failed to create request: %w", err))
	}

	// Set headers
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-ClickHouse-User", c.user)
	req.Header.Set("X-ClickHouse-Key", c.token)

	if c.debug {
		c.log.WithField("query", query).Debug("Executing ClickHouse query")
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, warehouse.Classify(warehouse.KindConnection, fmt.Errorf("request failed: %w", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("Failed to close response body")
		}
	}()

	// Read response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, warehouse.Classify(warehouse.KindConnection, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp.StatusCode, body)
	}

	// Debug logging
	if c.debug && len(body) < 1000 {
		c.log.WithField("response", string(body)).Debug("ClickHouse response")
	}

	return body, nil
}

// responseError classifies a non-200 reply
func responseError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))

	// Try to parse error message
	var errorResp struct {
		Exception string `json:"exception"`
	}
	if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil && errorResp.Exception != "" {
		message = errorResp.Exception
	}

	err := fmt.Errorf("%w (status %d): %s", ErrClickHouseResponse, status, message)

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		strings.Contains(message, "AUTHENTICATION_FAILED"), strings.Contains(message, "Code: 516"):
		return warehouse.NewError(warehouse.KindAuth, err)
	case strings.Contains(message, "TIMEOUT_EXCEEDED"), strings.Contains(message, "Code: 159"):
		return warehouse.NewError(warehouse.KindTimeout, err)
	case status >= http.StatusInternalServerError && status != http.StatusInternalServerError:
		// 502/503/504 come from proxies in front of the warehouse
		return warehouse.NewError(warehouse.KindConnection, err)
	default:
		return warehouse.NewError(warehouse.KindQuery, err)
	}
}

func (c *client) getTimeout(ctx context.Context) time.Duration {
	// Check if context already has a deadline
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < c.queryTimeout {
			return remaining
		}
	}

	return c.queryTimeout
}
