package ingest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/internal/external/elexon"
	"github.com/ewanb/gridpulse/internal/ingest/quality"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// GenerationFetcher is the upstream API surface the collector depends on
type GenerationFetcher interface {
	FetchGeneration(ctx context.Context, from, to time.Time) ([]contracts.GenerationRecord, error)
}

// Collector orchestrates generation data collection: fetch, quality
// filtering, and chunked historical retrieval. Execution is strictly
// sequential; pacing between chunks keeps the load on the shared public
// API polite.
type Collector struct {
	client GenerationFetcher
	filter *quality.Filter
	logger *logger.Logger
	chunk  time.Duration
	pacer  *rate.Limiter
}

// NewCollector creates a new Collector instance
func NewCollector(client GenerationFetcher, filter *quality.Filter, cfg config.CollectorConfig, log *logger.Logger) *Collector {
	chunkDays := cfg.ChunkDays
	if chunkDays <= 0 {
		chunkDays = 7
	}
	chunkDelay := cfg.ChunkDelay
	if chunkDelay <= 0 {
		chunkDelay = time.Second
	}

	return &Collector{
		client: client,
		filter: filter,
		logger: log.WithField("component", "collector"),
		chunk:  time.Duration(chunkDays) * 24 * time.Hour,
		pacer:  rate.NewLimiter(rate.Every(chunkDelay), 1),
	}
}

// FetchWindow fetches one window end-to-end: request, parse, quality
// filter. Returns only records from settlement periods judged complete.
func (c *Collector) FetchWindow(ctx context.Context, from, to time.Time) ([]contracts.GenerationRecord, error) {
	records, err := c.client.FetchGeneration(ctx, from, to)
	if err != nil {
		return nil, err
	}

	clean := c.filter.Apply(records)

	c.logger.WithFields(map[string]interface{}{
		"from":    from.Format(time.RFC3339),
		"to":      to.Format(time.RFC3339),
		"fetched": len(records),
		"kept":    len(clean),
	}).Info("Fetched generation window")

	return clean, nil
}

// FetchCurrent fetches the most recent generation data (last 24 hours)
func (c *Collector) FetchCurrent(ctx context.Context) ([]contracts.GenerationRecord, error) {
	to := time.Now().UTC()
	return c.FetchWindow(ctx, to.Add(-24*time.Hour), to)
}

// FetchHistorical fetches the trailing number of days via CollectRange
func (c *Collector) FetchHistorical(ctx context.Context, days int) ([]contracts.GenerationRecord, error) {
	to := time.Now().UTC()
	return c.CollectRange(ctx, to.AddDate(0, 0, -days), to)
}

// CollectRange fetches [from, to) in consecutive chunk-sized windows.
// Windows are processed in order, so the concatenated result is already
// chronological. All-or-nothing: any window failing terminally aborts the
// whole range with no partial result.
func (c *Collector) CollectRange(ctx context.Context, from, to time.Time) ([]contracts.GenerationRecord, error) {
	wins, err := windows(from, to, c.chunk)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"from":    from.Format(time.RFC3339),
		"to":      to.Format(time.RFC3339),
		"windows": len(wins),
	}).Info("Starting chunked collection")

	var all []contracts.GenerationRecord
	for _, w := range wins {
		// First wait is immediate; later waits space the calls out
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		records, err := c.FetchWindow(ctx, w.from, w.to)
		if err != nil {
			return nil, fmt.Errorf("window %s to %s: %w",
				w.from.Format(time.RFC3339), w.to.Format(time.RFC3339), err)
		}

		all = append(all, records...)
	}

	c.logger.WithFields(map[string]interface{}{
		"total_records": len(all),
		"windows":       len(wins),
	}).Info("Chunked collection completed")

	return all, nil
}

// window is one half-open chunk [from, to)
type window struct {
	from, to time.Time
}

// windows partitions [from, to) into consecutive windows of at most
// chunk length, the last possibly shorter. Contiguous and gap-free:
// each window starts exactly where the previous one ended.
func windows(from, to time.Time, chunk time.Duration) ([]window, error) {
	if !from.Before(to) {
		return nil, elexon.ErrInvalidRange
	}

	var wins []window
	for cursor := from; cursor.Before(to); {
		end := cursor.Add(chunk)
		if end.After(to) {
			end = to
		}
		wins = append(wins, window{from: cursor, to: end})
		cursor = end
	}

	return wins, nil
}
