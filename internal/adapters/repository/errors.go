package repository

import "errors"

// Sentinel kinds for leaderboard source errors.
var (
	ErrNoSource = errors.New("no leaderboard source configured")
	ErrDecode   = errors.New("decode leaderboard")
)
