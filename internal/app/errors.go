package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoSource = errors.New("service has no leaderboard source")
)
