package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
)

// Package storage keeps an optional audit trail of submissions. Nothing in
// the dispatch path reads it back.

// Store records submission history.
type Store interface {
	Close() error
	Record(entry domain.HistoryEntry) error
	Recent(limit int) ([]domain.HistoryEntry, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// Enabled reports whether s persists anything.
func Enabled(s Store) bool {
	if s == nil {
		return false
	}
	_, noop := s.(noopStore)
	return !noop
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                              { return nil }
func (noopStore) Record(domain.HistoryEntry) error          { return nil }
func (noopStore) Recent(int) ([]domain.HistoryEntry, error) { return nil, nil }
