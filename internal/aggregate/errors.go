package aggregate

import "errors"

var (
	// ErrInvalidDateFormat is returned when a date bound is not a YYYY-MM-DD calendar date.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrConnection marks any transport fault while walking report pages.
	// Fetchers return errors that match it with errors.Is.
	ErrConnection = errors.New("analytics connection error")

	// ErrNoQualifyingRaids is returned by attendance when no report passed the filters.
	ErrNoQualifyingRaids = errors.New("no qualifying raids")
)
