package fuelmix

import (
	"sort"
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// categoryOrder fixes the presentation order of category shares
var categoryOrder = []contracts.FuelCategory{
	contracts.CategoryRenewable,
	contracts.CategoryFossil,
	contracts.CategoryNuclear,
	contracts.CategoryOther,
}

// Share is one category's contribution within a settlement period
type Share struct {
	Category     contracts.FuelCategory `json:"category"`
	GenerationMW float64                `json:"generation_mw"`
	Percent      float64                `json:"percent"`
}

// PeriodMix is the category breakdown of one settlement period
type PeriodMix struct {
	Timestamp         time.Time `json:"timestamp"`
	TotalGenerationMW float64   `json:"total_generation_mw"`
	Shares            []Share   `json:"shares"`
}

// Aggregator rolls cleaned generation records up into per-period
// fuel-category shares for downstream consumers
type Aggregator struct {
	logger *logger.Logger
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{
		logger: log.WithField("component", "fuelmix.aggregator"),
	}
}

// MixByPeriod groups records by settlement period and computes each
// category's share of the period total. Output is sorted ascending by
// timestamp; shares follow a fixed category order. Categories absent
// from a period are omitted.
func (a *Aggregator) MixByPeriod(records []contracts.GenerationRecord) []PeriodMix {
	if len(records) == 0 {
		return nil
	}

	type periodTotals struct {
		total      float64
		byCategory map[contracts.FuelCategory]float64
	}

	periods := make(map[time.Time]*periodTotals)
	for _, record := range records {
		p, ok := periods[record.Timestamp]
		if !ok {
			p = &periodTotals{byCategory: make(map[contracts.FuelCategory]float64)}
			periods[record.Timestamp] = p
		}
		p.total += record.GenerationMW
		p.byCategory[contracts.CategoryOf(record.FuelType)] += record.GenerationMW
	}

	mixes := make([]PeriodMix, 0, len(periods))
	for timestamp, p := range periods {
		mix := PeriodMix{
			Timestamp:         timestamp,
			TotalGenerationMW: p.total,
		}

		for _, category := range categoryOrder {
			mw, ok := p.byCategory[category]
			if !ok {
				continue
			}
			share := Share{Category: category, GenerationMW: mw}
			if p.total > 0 {
				share.Percent = mw / p.total * 100
			}
			mix.Shares = append(mix.Shares, share)
		}

		mixes = append(mixes, mix)
	}

	sort.Slice(mixes, func(i, j int) bool {
		return mixes[i].Timestamp.Before(mixes[j].Timestamp)
	})

	a.logger.WithFields(map[string]interface{}{
		"records": len(records),
		"periods": len(mixes),
	}).Debug("Aggregated fuel mix")

	return mixes
}

// Latest returns the mix of the most recent settlement period, or nil
// for empty input
func (a *Aggregator) Latest(records []contracts.GenerationRecord) *PeriodMix {
	mixes := a.MixByPeriod(records)
	if len(mixes) == 0 {
		return nil
	}
	return &mixes[len(mixes)-1]
}
