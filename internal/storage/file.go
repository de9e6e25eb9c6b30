// Package storage provides ledger persistence with pluggable backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bobmcallan/stocktracker/internal/common"
	"github.com/bobmcallan/stocktracker/internal/models"
)

// FileStore keeps the whole ledger in one indented JSON document.
type FileStore struct {
	path     string
	versions int
	logger   *common.Logger
}

// NewFileStore creates a FileStore for path, creating its parent directory.
func NewFileStore(logger *common.Logger, path string, versions int) (*FileStore, error) {
	if versions < 0 {
		versions = 0
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	logger.Debug().Str("path", path).Int("versions", versions).Msg("FileStore opened")
	return &FileStore{path: path, versions: versions, logger: logger}, nil
}

// Load reads the ledger. A missing or empty file is a fresh ledger.
func (fs *FileStore) Load(_ context.Context) (models.Ledger, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.logger.Debug().Str("path", fs.path).Msg("No ledger yet, starting empty")
			return models.NewLedger(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}
	if len(data) == 0 {
		return models.NewLedger(), nil
	}

	var ledger models.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
	}
	if ledger == nil {
		return models.NewLedger(), nil
	}
	ledger = ledger.Normalize()
	if err := ledger.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger %s: %w", fs.path, err)
	}
	return ledger, nil
}

// Save marshals the ledger and writes it atomically: a temp file in the same
// directory is fully written and synced, then renamed over the target.
func (fs *FileStore) Save(_ context.Context, ledger models.Ledger) error {
	if ledger == nil {
		ledger = models.NewLedger()
	}
	jsonData, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal JSON: %w", models.ErrPersistence, err)
	}
	jsonData = append(jsonData, '\n')

	if fs.versions > 0 {
		fs.rotateVersions()
	}

	dir := filepath.Dir(fs.path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", models.ErrPersistence, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to write temp file: %w", models.ErrPersistence, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to sync temp file: %w", models.ErrPersistence, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close temp file: %w", models.ErrPersistence, err)
	}

	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to rename temp file: %w", models.ErrPersistence, err)
	}

	fs.logger.Debug().Str("path", fs.path).Int("holdings", len(ledger)).Msg("Ledger saved")
	return nil
}

// rotateVersions shifts existing versions up and copies current to v1.
// v{N} -> deleted, v{N-1} -> v{N}, ..., v1 -> v2, current -> v1
func (fs *FileStore) rotateVersions() {
	oldest := fmt.Sprintf("%s.v%d", fs.path, fs.versions)
	os.Remove(oldest)

	for i := fs.versions; i > 1; i-- {
		src := fmt.Sprintf("%s.v%d", fs.path, i-1)
		dst := fmt.Sprintf("%s.v%d", fs.path, i)
		os.Rename(src, dst) // may not exist yet
	}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return
	}
	if err := os.WriteFile(fs.path+".v1", data, 0644); err != nil {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("Failed to keep previous ledger version")
	}
}

// Describe returns "file:<path>".
func (fs *FileStore) Describe() string {
	return BackendLabel(common.BackendFile, fs.path)
}

// Close is a no-op; every Save is already on disk.
func (fs *FileStore) Close() error {
	return nil
}
