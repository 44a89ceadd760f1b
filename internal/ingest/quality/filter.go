package quality

import (
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// DefaultMinTotalGenerationMW is the threshold below which a settlement
// period is treated as an incomplete fuel-mix snapshot. The UK's
// simultaneous draw across all sources rarely falls under 25 GW; the
// upstream API is known to occasionally return renewables-only partial
// data, which shows up as an implausibly low total.
const DefaultMinTotalGenerationMW = 25000

// Filter drops settlement periods whose reported fuel mix is too
// incomplete to trust. Rejection here is data cleaning, not an error:
// the filter never fails, and an all-invalid input yields an empty output.
type Filter struct {
	minTotalMW float64
	logger     *logger.Logger
}

// NewFilter creates a quality filter. A non-positive threshold selects
// the default.
func NewFilter(minTotalMW float64, log *logger.Logger) *Filter {
	if minTotalMW <= 0 {
		minTotalMW = DefaultMinTotalGenerationMW
	}
	return &Filter{
		minTotalMW: minTotalMW,
		logger:     log.WithField("component", "quality.filter"),
	}
}

// MinTotalMW returns the active threshold
func (f *Filter) MinTotalMW() float64 {
	return f.minTotalMW
}

// Apply returns the records whose settlement period passes the
// minimum-total check, preserving input order. Dropped counts are
// reported through the logger only. Idempotent: running Apply on its own
// output is a no-op.
func (f *Filter) Apply(records []contracts.GenerationRecord) []contracts.GenerationRecord {
	if len(records) == 0 {
		return records
	}

	summaries := f.Summarize(records)

	clean := make([]contracts.GenerationRecord, 0, len(records))
	for _, record := range records {
		if summaries[record.Timestamp].IsValid {
			clean = append(clean, record)
		}
	}

	droppedRecords := len(records) - len(clean)
	if droppedRecords > 0 {
		droppedPeriods := 0
		for _, summary := range summaries {
			if !summary.IsValid {
				droppedPeriods++
			}
		}

		f.logger.WithFields(map[string]interface{}{
			"dropped_records": droppedRecords,
			"dropped_periods": droppedPeriods,
			"min_total_mw":    f.minTotalMW,
		}).Warn("Dropped periods with incomplete fuel mix")
	}

	return clean
}

// Summarize computes one PeriodQualitySummary per distinct timestamp.
// Summaries live only for the duration of one fetch; they are derived
// fresh each call and never persisted.
func (f *Filter) Summarize(records []contracts.GenerationRecord) map[time.Time]contracts.PeriodQualitySummary {
	totals := make(map[time.Time]float64)
	for _, record := range records {
		totals[record.Timestamp] += record.GenerationMW
	}

	summaries := make(map[time.Time]contracts.PeriodQualitySummary, len(totals))
	for timestamp, total := range totals {
		summaries[timestamp] = contracts.PeriodQualitySummary{
			Timestamp:         timestamp,
			TotalGenerationMW: total,
			IsValid:           total >= f.minTotalMW,
		}
	}

	return summaries
}
