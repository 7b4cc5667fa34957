package enrich

import "errors"

// Sentinel kinds for enrichment errors.
var (
	ErrMalformedRecord = errors.New("malformed effort record")
	ErrUndefinedSpeed  = errors.New("undefined speed")
)
