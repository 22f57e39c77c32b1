package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// Manager caches the decoded document and serialises updates to it.
type Manager struct {
	store Store

	mu   sync.Mutex // guards etag and serialises Update and Reload
	etag string
	doc  atomic.Pointer[document.Document]
}

// NewManager creates a manager on top of store. Call Reload before use.
func NewManager(s Store) *Manager {
	return &Manager{store: s}
}

// Snapshot returns the current document. It must be treated as read only;
// updates replace it instead of changing it. Nil before the first Reload.
func (m *Manager) Snapshot() *document.Document {
	return m.doc.Load()
}

// Reload reads the stored document and runs the schema migration.
//
// A corrupt document is replaced by the defaults in memory and logged, the stored
// bytes stay untouched until the next update. A migrated document is written back once.
// Only errors reading the store are returned.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, tag, err := m.store.Load(ctx)
	if err != nil {
		return err
	}

	doc, migrated, err := document.Decode(raw)
	if err != nil {
		log.Error().Err(err).Msg("configuration document is unreadable, using defaults")

		m.etag = tag
		m.doc.Store(doc)

		return nil
	}

	m.etag = tag
	m.doc.Store(doc)

	if migrated {
		if errSave := m.save(ctx, doc); errSave != nil {
			log.Warn().Err(errSave).Msg("failed to write back migrated configuration document")
		} else {
			log.Info().Msg("configuration document migrated")
		}
	}

	return nil
}

// Update applies fn to a copy of the current document, validates and saves it.
//
// If fn or validation fails nothing changes. On ErrConflict the change is dropped and
// the in-memory document is refreshed from the store, so a retry starts from what
// the other writer saved. On ErrSaveFailed the new document is kept in memory and the error is
// returned so the caller can decide to retry.
func (m *Manager) Update(ctx context.Context, fn func(doc *document.Document) error) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.doc.Load()
	if current == nil {
		current = document.Default()
	}

	next := current.Clone()

	if err := fn(next); err != nil {
		return nil, err
	}

	if err := document.Validate(next); err != nil {
		return nil, err
	}

	err := m.save(ctx, next)

	switch {
	case errors.Is(err, ErrConflict):
		if errRefresh := m.refresh(ctx); errRefresh != nil {
			log.Warn().Err(errRefresh).Msg("failed to refresh configuration document after conflict")
		}

		return nil, err
	case err != nil:
		m.doc.Store(next)
		return next, err
	}

	m.doc.Store(next)

	return next, nil
}

// Refresh picks up a document written by another process. Nothing happens while the
// stored etag equals the one last seen. A migration is not written back here; the
// next Update saves it.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refresh(ctx)
}

// Watch calls Refresh every interval until ctx is done. A non-positive interval
// disables it.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to refresh configuration document")
			}
		}
	}
}

// refresh reloads the stored document when its etag moved. Callers hold mu.
func (m *Manager) refresh(ctx context.Context) error {
	raw, tag, err := m.store.Load(ctx)
	if err != nil {
		return err
	}

	if tag == m.etag && m.doc.Load() != nil {
		return nil
	}

	doc, _, err := document.Decode(raw)
	if err != nil {
		log.Error().Err(err).Msg("configuration document is unreadable, using defaults")
	}

	m.etag = tag
	m.doc.Store(doc)

	log.Info().Str("etag", tag).Msg("configuration document changed in store, reloaded")

	return nil
}

// save writes doc with the current etag and remembers the new one. Callers hold mu.
func (m *Manager) save(ctx context.Context, doc *document.Document) error {
	raw, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	tag, err := m.store.Save(ctx, raw, m.etag)
	if err != nil {
		return err
	}

	m.etag = tag

	return nil
}
