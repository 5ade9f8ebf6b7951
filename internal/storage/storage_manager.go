/**
 * History manager for the docscan client
 *
 * Opens the configured history backend and coordinates save, lookup and
 * export of scans on top of it.
 */

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adverant/nexus/docscan-client/internal/config"
	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
)

// HistoryManager coordinates history operations over one backend
type HistoryManager struct {
	store  HistoryStore
	now    func() time.Time
	logger *logging.Logger
}

// OpenHistoryStore opens the backend named by cfg.HistoryBackend
func OpenHistoryStore(ctx context.Context, cfg *config.Config) (HistoryStore, error) {
	switch cfg.HistoryBackend {
	case config.HistoryBackendFile, "":
		return NewFileStore(cfg.HistoryPath)
	case config.HistoryBackendSQLite:
		return NewSQLStore(ctx, DriverSQLite, sqlitePath(cfg.HistoryPath))
	case config.HistoryBackendPostgres:
		return NewSQLStore(ctx, DriverPostgres, cfg.DatabaseURL)
	case config.HistoryBackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

// sqlitePath swaps the default JSON file name for a database file
func sqlitePath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	return path
}

// NewHistoryManager wraps store; now defaults to time.Now
func NewHistoryManager(store HistoryStore, now func() time.Time) (*HistoryManager, error) {
	if store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if now == nil {
		now = time.Now
	}
	return &HistoryManager{
		store:  store,
		now:    now,
		logger: logging.NewLogger("history"),
	}, nil
}

// Save stores the final text of a scan under title
func (m *HistoryManager) Save(ctx context.Context, title, text string) (*Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInputError("", "Nothing to save: the text is empty", nil)
	}
	if strings.TrimSpace(title) == "" {
		title = "OCR Document"
	}

	rec := NewRecord(title, text, m.now())
	if err := m.store.Append(ctx, rec); err != nil {
		m.logger.Error("Failed to save scan", "title", title, "error", err)
		return nil, err
	}

	m.logger.Info("Saved scan to history",
		"id", rec.ID,
		"title", rec.Title,
		"word_count", rec.WordCount,
	)
	return &rec, nil
}

// List returns the history in save order
func (m *HistoryManager) List(ctx context.Context) ([]Record, error) {
	return m.store.List(ctx)
}

// Get returns one record
func (m *HistoryManager) Get(ctx context.Context, id string) (*Record, error) {
	return m.store.Get(ctx, id)
}

// Delete removes one record
func (m *HistoryManager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("Deleted history record", "id", id)
	return nil
}

// Clear removes the whole history
func (m *HistoryManager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.logger.Info("Cleared history")
	return nil
}

// ExportXLSX renders the whole history as a workbook
func (m *HistoryManager) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := m.now()

	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	data, err := ExportXLSX(records)
	if err != nil {
		return nil, errors.NewStorageFailedError("export", err)
	}

	m.logger.Info("Exported history",
		"rows", len(records),
		"elapsed_ms", m.now().Sub(start).Milliseconds(),
	)
	return data, nil
}

// Close releases the backend
func (m *HistoryManager) Close() error {
	return m.store.Close()
}
