// Package repository loads leaderboard snapshots and selects the working
// set that gets scored.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/dodgy/internal/domain/model"
)

// Source provides a materialized leaderboard snapshot.
type Source interface {
	// Load returns every entry of the leaderboard, in any order.
	Load(ctx context.Context) ([]model.RawEffort, error)
}

// DecodeLeaderboard reads a {"entries": [...]} leaderboard envelope.
func DecodeLeaderboard(r io.Reader) ([]model.RawEffort, error) {
	var lb model.Leaderboard
	if err := json.NewDecoder(r).Decode(&lb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return lb.Entries, nil
}

// FileSource reads a leaderboard JSON file on every Load.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (s *FileSource) Path() string { return s.path }

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) ([]model.RawEffort, error) {
	if s.path == "" {
		return nil, ErrNoSource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := DecodeLeaderboard(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return entries, nil
}

// StaticSource serves a fixed snapshot.
type StaticSource []model.RawEffort

// Load implements Source.
func (s StaticSource) Load(context.Context) ([]model.RawEffort, error) {
	return append([]model.RawEffort(nil), s...), nil
}
