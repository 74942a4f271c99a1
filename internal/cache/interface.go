package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Entry records a successful compilation of one command
type Entry struct {
	Command    string    `json:"command"`
	SourceHash string    `json:"source_hash"`
	Output     string    `json:"output"`
	CompiledAt time.Time `json:"compiled_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the remaining time-to-live
func (e *Entry) TTL() time.Duration {
	remaining := time.Until(e.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UpToDate reports whether the entry still describes sourceHash
func (e *Entry) UpToDate(sourceHash string) bool {
	return !e.IsExpired() && e.SourceHash != "" && e.SourceHash == sourceHash
}

// Options contains cache configuration options
type Options struct {
	Directory string
	InMemory  bool
	// Logger receives badger's internal messages; nil silences them
	Logger *utils.Logger
}

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{
		Directory: "",
		InMemory:  false,
	}
}

// GetEntry loads the entry stored for a command line
func GetEntry(ctx context.Context, c domain.Cache, line string) (*Entry, error) {
	data, err := c.Get(ctx, CommandKey(line))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &e, nil
}

// PutEntry stores e under its command line
func PutEntry(ctx context.Context, c domain.Cache, e Entry, ttl time.Duration) error {
	if e.CompiledAt.IsZero() {
		e.CompiledAt = time.Now()
	}
	if ttl > 0 {
		e.ExpiresAt = e.CompiledAt.Add(ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.Set(ctx, CommandKey(e.Command), data, ttl)
}
