package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrUnknownScorer   = errors.New("unknown scorer")
	ErrDuplicateScorer = errors.New("duplicate scorer")
	ErrNoScorers       = errors.New("no scorers configured")
)
