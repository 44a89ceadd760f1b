package contracts

import "time"

// GenerationRecord is one fuel type's output for one settlement period.
// Timestamp is the settlement period start, UTC. Records are transient:
// they live for the duration of one fetch, then move to the sink.
type GenerationRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	FuelType     string    `json:"fuel_type"`
	GenerationMW float64   `json:"generation_mw"`
}

// PeriodQualitySummary is the per-timestamp aggregate the quality filter
// derives from a batch of records. Summaries are recomputed on every fetch
// and never persisted; only the filtering decision propagates.
type PeriodQualitySummary struct {
	Timestamp         time.Time `json:"timestamp"`
	TotalGenerationMW float64   `json:"total_generation_mw"`
	IsValid           bool      `json:"is_valid"`
}

// FuelCategory groups raw fuel types into a small fixed vocabulary
type FuelCategory string

const (
	CategoryRenewable FuelCategory = "renewable"
	CategoryFossil    FuelCategory = "fossil"
	CategoryNuclear   FuelCategory = "nuclear"
	CategoryOther     FuelCategory = "other"
)

// fuelCategories maps Elexon psrType identifiers to categories.
// Read-only, process-lifetime constant.
var fuelCategories = map[string]FuelCategory{
	"Biomass":                         CategoryRenewable,
	"Fossil Gas":                      CategoryFossil,
	"Fossil Hard coal":                CategoryFossil,
	"Fossil Oil":                      CategoryFossil,
	"Hydro Pumped Storage":            CategoryRenewable,
	"Hydro Run-of-river and poundage": CategoryRenewable,
	"Nuclear":                         CategoryNuclear,
	"Other":                           CategoryOther,
	"Solar":                           CategoryRenewable,
	"Wind Offshore":                   CategoryRenewable,
	"Wind Onshore":                    CategoryRenewable,
}

// CategoryOf returns the category for a raw fuel type identifier.
// Unknown fuel types fall into CategoryOther so new psrTypes from the
// upstream API degrade gracefully.
func CategoryOf(fuelType string) FuelCategory {
	if category, ok := fuelCategories[fuelType]; ok {
		return category
	}
	return CategoryOther
}

// FuelCategories returns a copy of the full fuel type mapping
func FuelCategories() map[string]FuelCategory {
	out := make(map[string]FuelCategory, len(fuelCategories))
	for fuelType, category := range fuelCategories {
		out[fuelType] = category
	}
	return out
}
