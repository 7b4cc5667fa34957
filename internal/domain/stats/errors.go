package stats

import "errors"

// Sentinel kinds for statistics errors.
var (
	ErrEmpty = errors.New("statistic undefined for empty input")
)
