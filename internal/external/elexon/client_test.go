package elexon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/httputil"
	"github.com/ewanb/gridpulse/pkg/logger"
)

func testClient(t *testing.T, serverURL string, maxAttempts int) *Client {
	t.Helper()

	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Elexon: config.ElexonConfig{
			Timeout:        5 * time.Second,
			RetryAttempts:  maxAttempts,
			RetryBaseDelay: time.Millisecond,
		},
	}
	log := logger.New(cfg)
	httpClient := httputil.New(cfg, log)

	return NewClient(serverURL, httpClient, log)
}

func TestFetchGeneration(t *testing.T) {
	var gotFrom, gotTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"startTime": "2026-01-15T12:00:00Z", "data": [
				{"psrType": "Fossil Gas", "quantity": 12000},
				{"psrType": "Wind Onshore", "quantity": 5000},
				{"psrType": "Nuclear", "quantity": 4500}
			]}
		]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)

	from := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 15, 13, 0, 0, 0, time.UTC)

	records, err := client.FetchGeneration(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchGeneration() failed: %v", err)
	}

	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}

	if gotFrom != "2026-01-15T12:00:00Z" {
		t.Errorf("from param = %s, want 2026-01-15T12:00:00Z", gotFrom)
	}
	if gotTo != "2026-01-15T13:00:00Z" {
		t.Errorf("to param = %s, want 2026-01-15T13:00:00Z", gotTo)
	}
}

func TestFetchGenerationInvalidRange(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)

	instant := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	_, err := client.FetchGeneration(context.Background(), instant, instant)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}

	// Rejected before any I/O
	if calls.Load() != 0 {
		t.Errorf("Expected 0 HTTP calls, got %d", calls.Load())
	}
}

func TestFetchGenerationExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)

	from := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	_, err := client.FetchGeneration(context.Background(), from, from.Add(time.Hour))
	if !errors.Is(err, ErrFetchExhausted) {
		t.Errorf("Expected ErrFetchExhausted, got %v", err)
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", got)
	}
}

func TestFetchGenerationMalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data": [{"data": [{"psrType": "Solar"}]}]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)

	from := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	_, err := client.FetchGeneration(context.Background(), from, from.Add(time.Hour))

	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedRecordError, got %v", err)
	}
	if errors.Is(err, ErrFetchExhausted) {
		t.Error("Malformed body must not escalate to ErrFetchExhausted")
	}

	// A 200 with a bad body must not consume retry budget
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", got)
	}
}

func TestFetchGenerationEmptyPeriodList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)

	from := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	records, err := client.FetchGeneration(context.Background(), from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("FetchGeneration() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty result, got %d records", len(records))
	}
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}
	log := logger.New(cfg)

	client := NewClient("", httputil.New(cfg, log), log)
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", client.baseURL, DefaultBaseURL)
	}
}
