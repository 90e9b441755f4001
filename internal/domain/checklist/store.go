package checklist

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Store holds the current checklist Spec snapshot. Reads are lock-free and
// always see a complete snapshot; Reload swaps the snapshot atomically so a
// reload never races with in-flight analysis runs.
type Store struct {
	path    string
	current atomic.Pointer[Spec]
	logger  zerolog.Logger
}

// NewStore creates a store backed by the checklist document at path. Load
// must succeed once before the store is used.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "checklist-store").Logger(),
	}
}

// Load parses the checklist document and installs it as the current
// snapshot. A load failure at startup is fatal to the engine.
func (s *Store) Load() error {
	spec, err := ParseFile(s.path, s.logger)
	if err != nil {
		return err
	}
	s.current.Store(spec)
	s.logger.Info().Int64("version", spec.Version()).Int("items", spec.ItemCount()).Msg("checklist loaded")
	return nil
}

// Reload re-parses the document and swaps the snapshot. On failure the
// previous snapshot stays installed and the error is returned.
func (s *Store) Reload() error {
	spec, err := ParseFile(s.path, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("checklist reload failed, keeping previous snapshot")
		return err
	}
	s.current.Store(spec)
	s.logger.Info().Int64("version", spec.Version()).Int("items", spec.ItemCount()).Msg("checklist reloaded")
	return nil
}

// Current returns the installed snapshot, or nil before the first Load.
func (s *Store) Current() *Spec {
	return s.current.Load()
}
