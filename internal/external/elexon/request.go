package elexon

import (
	"net/url"
	"time"
)

// timestampFormat is the ISO-8601 form the API expects: UTC, second
// precision, literal Z suffix.
const timestampFormat = "2006-01-02T15:04:05Z"

// windowParams builds the from/to query parameters for a fetch window.
// Pure: no side effects, rejects start >= end with ErrInvalidRange.
func windowParams(from, to time.Time) (url.Values, error) {
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}

	params := url.Values{}
	params.Set("from", from.UTC().Format(timestampFormat))
	params.Set("to", to.UTC().Format(timestampFormat))
	return params, nil
}
