package elexon

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
)

// generationResponse mirrors the API's nested payload: a top-level array
// of settlement periods, each holding per-fuel-type entries. Pointer
// fields distinguish a missing field from a zero value.
type generationResponse struct {
	Data []periodEntry `json:"data"`
}

type periodEntry struct {
	StartTime *string     `json:"startTime"`
	Data      []fuelEntry `json:"data"`
}

type fuelEntry struct {
	PsrType  *string  `json:"psrType"`
	Quantity *float64 `json:"quantity"`
}

// parseGeneration flattens the nested payload into records sorted
// ascending by timestamp. The sort is stable so fuel entries keep their
// original per-period order. An empty period list yields an empty slice.
// Any missing required field rejects the entire response.
func parseGeneration(body []byte) ([]contracts.GenerationRecord, error) {
	var resp generationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedRecordError{Err: err}
	}

	records := make([]contracts.GenerationRecord, 0, len(resp.Data))
	for _, period := range resp.Data {
		if period.StartTime == nil {
			return nil, &MalformedRecordError{Field: "startTime"}
		}

		timestamp, err := time.Parse(time.RFC3339, *period.StartTime)
		if err != nil {
			return nil, &MalformedRecordError{Field: "startTime", Err: err}
		}
		timestamp = timestamp.UTC()

		// A period with no fuel entries contributes zero records; the
		// quality filter downstream drops the period by construction.
		for _, entry := range period.Data {
			if entry.PsrType == nil {
				return nil, &MalformedRecordError{Field: "psrType"}
			}
			if entry.Quantity == nil {
				return nil, &MalformedRecordError{Field: "quantity"}
			}

			records = append(records, contracts.GenerationRecord{
				Timestamp:    timestamp,
				FuelType:     *entry.PsrType,
				GenerationMW: *entry.Quantity,
			})
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return records, nil
}
