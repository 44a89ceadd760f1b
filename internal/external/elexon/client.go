package elexon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/pkg/httputil"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// DefaultBaseURL is the public Elexon Insights API. No key required.
const DefaultBaseURL = "https://data.elexon.co.uk/bmrs/api/v1"

const generationPath = "/generation/actual/per-type"

// Client handles communication with the Elexon Insights API.
// All Elexon calls go through this client; the underlying HTTP session is
// created once and reused, and execution is strictly sequential.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Elexon API client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string, httpClient *httputil.Client, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// FetchGeneration fetches actual generation by fuel type for a window.
// Transport failures and bad statuses are retried by the HTTP client on
// its deterministic backoff schedule and surface as ErrFetchExhausted; a
// body that fails to parse surfaces immediately as MalformedRecordError.
func (c *Client) FetchGeneration(ctx context.Context, from, to time.Time) ([]contracts.GenerationRecord, error) {
	params, err := windowParams(from, to)
	if err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, generationPath, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		if errors.Is(err, httputil.ErrAttemptsExhausted) {
			return nil, fmt.Errorf("%w: %v", ErrFetchExhausted, err)
		}
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	records, err := parseGeneration(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"from":  from.UTC().Format(timestampFormat),
		"to":    to.UTC().Format(timestampFormat),
		"count": len(records),
	}).Debug("Fetched generation records")

	return records, nil
}
