package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/internal/external/elexon"
	"github.com/ewanb/gridpulse/internal/ingest/quality"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// fakeFetcher records the windows it was asked for and replies from a
// canned function
type fakeFetcher struct {
	calls     []window
	callTimes []time.Time
	reply     func(from, to time.Time) ([]contracts.GenerationRecord, error)
}

func (f *fakeFetcher) FetchGeneration(ctx context.Context, from, to time.Time) ([]contracts.GenerationRecord, error) {
	f.calls = append(f.calls, window{from: from, to: to})
	f.callTimes = append(f.callTimes, time.Now())
	if f.reply == nil {
		return nil, nil
	}
	return f.reply(from, to)
}

func newTestCollector(fetcher GenerationFetcher) *Collector {
	filter := quality.NewFilter(25000, testLogger())
	cfg := config.CollectorConfig{
		ChunkDays:  7,
		ChunkDelay: time.Millisecond,
	}
	return NewCollector(fetcher, filter, cfg, testLogger())
}

func TestWindows(t *testing.T) {
	day := 24 * time.Hour
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		from  time.Time
		to    time.Time
		chunk time.Duration
		want  int
	}{
		{"ten days in seven-day chunks", start, start.Add(10 * day), 7 * day, 2},
		{"exact multiple", start, start.Add(14 * day), 7 * day, 2},
		{"single short window", start, start.Add(3 * day), 7 * day, 1},
		{"one chunk boundary", start, start.Add(7 * day), 7 * day, 1},
		{"sub-day span", start, start.Add(6 * time.Hour), 7 * day, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wins, err := windows(tt.from, tt.to, tt.chunk)
			require.NoError(t, err)
			require.Len(t, wins, tt.want)

			// Contiguous and gap-free, covering [from, to) exactly
			assert.True(t, wins[0].from.Equal(tt.from))
			assert.True(t, wins[len(wins)-1].to.Equal(tt.to))
			for i := 1; i < len(wins); i++ {
				assert.True(t, wins[i].from.Equal(wins[i-1].to),
					"window %d does not start where %d ended", i, i-1)
			}
			for _, w := range wins {
				assert.True(t, w.from.Before(w.to))
				assert.LessOrEqual(t, w.to.Sub(w.from), tt.chunk)
			}
		})
	}
}

func TestWindowsTenDayScenario(t *testing.T) {
	day := 24 * time.Hour
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	wins, err := windows(start, start.Add(10*day), 7*day)
	require.NoError(t, err)
	require.Len(t, wins, 2)

	assert.True(t, wins[0].from.Equal(start))
	assert.True(t, wins[0].to.Equal(start.Add(7*day)))
	assert.True(t, wins[1].from.Equal(start.Add(7*day)))
	assert.True(t, wins[1].to.Equal(start.Add(10*day)))
}

func TestWindowsInvalidRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := windows(start, start, 7*24*time.Hour)
	assert.ErrorIs(t, err, elexon.ErrInvalidRange)

	_, err = windows(start.Add(time.Hour), start, 7*24*time.Hour)
	assert.ErrorIs(t, err, elexon.ErrInvalidRange)
}

func TestFetchWindowFilters(t *testing.T) {
	validPeriod := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	partialPeriod := validPeriod.Add(30 * time.Minute)

	fetcher := &fakeFetcher{
		reply: func(from, to time.Time) ([]contracts.GenerationRecord, error) {
			return []contracts.GenerationRecord{
				{Timestamp: validPeriod, FuelType: "Fossil Gas", GenerationMW: 20000},
				{Timestamp: validPeriod, FuelType: "Nuclear", GenerationMW: 8000},
				{Timestamp: partialPeriod, FuelType: "Solar", GenerationMW: 1500},
			}, nil
		},
	}
	collector := newTestCollector(fetcher)

	records, err := collector.FetchWindow(context.Background(), validPeriod, partialPeriod.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.Timestamp.Equal(validPeriod))
	}
}

func TestCollectRangeSequencesWindows(t *testing.T) {
	day := 24 * time.Hour
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * day)

	fetcher := &fakeFetcher{
		reply: func(from, to time.Time) ([]contracts.GenerationRecord, error) {
			return []contracts.GenerationRecord{
				{Timestamp: from, FuelType: "Fossil Gas", GenerationMW: 30000},
			}, nil
		},
	}
	collector := newTestCollector(fetcher)

	records, err := collector.CollectRange(context.Background(), start, end)
	require.NoError(t, err)

	// Exactly 2 sub-window calls: [start, start+7d) and [start+7d, start+10d)
	require.Len(t, fetcher.calls, 2)
	assert.True(t, fetcher.calls[0].from.Equal(start))
	assert.True(t, fetcher.calls[0].to.Equal(start.Add(7*day)))
	assert.True(t, fetcher.calls[1].from.Equal(start.Add(7*day)))
	assert.True(t, fetcher.calls[1].to.Equal(end))

	// Concatenated output stays chronological
	require.Len(t, records, 2)
	assert.True(t, records[0].Timestamp.Before(records[1].Timestamp))
}

func TestCollectRangeAllOrNothing(t *testing.T) {
	day := 24 * time.Hour
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{
		reply: func(from, to time.Time) ([]contracts.GenerationRecord, error) {
			// Second window fails terminally
			if from.Equal(start.Add(7 * day)) {
				return nil, fmt.Errorf("giving up: %w", elexon.ErrFetchExhausted)
			}
			return []contracts.GenerationRecord{
				{Timestamp: from, FuelType: "Fossil Gas", GenerationMW: 30000},
			}, nil
		},
	}
	collector := newTestCollector(fetcher)

	records, err := collector.CollectRange(context.Background(), start, start.Add(10*day))
	assert.ErrorIs(t, err, elexon.ErrFetchExhausted)
	assert.Nil(t, records, "no partial result on failure")
}

func TestCollectRangeInvalidRange(t *testing.T) {
	fetcher := &fakeFetcher{}
	collector := newTestCollector(fetcher)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := collector.CollectRange(context.Background(), start, start)
	assert.ErrorIs(t, err, elexon.ErrInvalidRange)
	assert.Empty(t, fetcher.calls, "no fetches for a rejected range")
}

func TestCollectRangePacesWindows(t *testing.T) {
	fetcher := &fakeFetcher{
		reply: func(from, to time.Time) ([]contracts.GenerationRecord, error) {
			return nil, nil
		},
	}
	filter := quality.NewFilter(25000, testLogger())
	chunkDelay := 50 * time.Millisecond
	cfg := config.CollectorConfig{ChunkDays: 1, ChunkDelay: chunkDelay}
	collector := NewCollector(fetcher, filter, cfg, testLogger())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := collector.CollectRange(context.Background(), start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, fetcher.callTimes, 3)

	// The first call goes out immediately; each subsequent call waits out
	// the courtesy delay. Small slack absorbs timestamp capture jitter.
	slack := 5 * time.Millisecond
	for i := 1; i < len(fetcher.callTimes); i++ {
		gap := fetcher.callTimes[i].Sub(fetcher.callTimes[i-1])
		assert.GreaterOrEqual(t, gap, chunkDelay-slack,
			"call %d followed call %d after only %v", i, i-1, gap)
	}
}

func TestCollectRangeContextCancelled(t *testing.T) {
	fetcher := &fakeFetcher{
		reply: func(from, to time.Time) ([]contracts.GenerationRecord, error) {
			return nil, nil
		},
	}
	filter := quality.NewFilter(25000, testLogger())
	// Long pacing delay so cancellation lands between windows
	cfg := config.CollectorConfig{ChunkDays: 1, ChunkDelay: time.Hour}
	collector := NewCollector(fetcher, filter, cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := collector.CollectRange(ctx, start, start.AddDate(0, 0, 3))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || len(fetcher.calls) < 3)
}

func TestFetchWindowPropagatesError(t *testing.T) {
	fetcher := &fakeFetcher{
		reply: func(from, to time.Time) ([]contracts.GenerationRecord, error) {
			return nil, elexon.ErrFetchExhausted
		},
	}
	collector := newTestCollector(fetcher)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := collector.FetchWindow(context.Background(), start, start.Add(time.Hour))
	assert.ErrorIs(t, err, elexon.ErrFetchExhausted)
}
