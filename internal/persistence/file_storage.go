package persistence

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"docstore/internal/globalconst"
	"docstore/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStorage writes collection snapshots under a data directory, one file
// per collection. Writes go to a temporary file first and are moved into
// place with an atomic rename, so the on-disk file is always a complete
// snapshot.
type FileStorage struct {
	dataDir string
}

// NewFileStorage returns a FileStorage rooted at dataDir, creating the
// collections directory if needed.
func NewFileStorage(dataDir string) (*FileStorage, error) {
	dir := filepath.Join(dataDir, globalconst.CollectionsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create collections directory '%s': %w", dir, err)
	}
	return &FileStorage{dataDir: dataDir}, nil
}

// collectionFilePath maps a collection name to its data file. The name is
// URL-escaped so arbitrary collection names stay within the directory.
func (fs *FileStorage) collectionFilePath(name string) string {
	escaped := url.PathEscape(name)
	return filepath.Join(fs.dataDir, globalconst.CollectionsDirName, escaped+globalconst.DBFileExtension)
}

// SaveCollection writes one collection's documents to disk.
func (fs *FileStorage) SaveCollection(col *store.Collection) error {
	docs := col.Documents()

	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to serialize collection '%s': %w", col.Name(), err)
	}

	finalPath := fs.collectionFilePath(col.Name())
	tempPath := finalPath + globalconst.TempFileSuffix

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file '%s': %w", tempPath, err)
	}
	defer file.Close()

	if _, err := file.Write(raw); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write snapshot for collection '%s': %w", col.Name(), err)
	}

	// Flush to disk before the rename so a crash never leaves a short file
	// behind the final name.
	if err := file.Sync(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync snapshot for collection '%s': %w", col.Name(), err)
	}
	file.Close()

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file to '%s': %w", finalPath, err)
	}

	slog.Debug("Collection snapshot saved", "collection", col.Name(), "path", finalPath, "doc_count", len(docs))
	return nil
}

// SaveAll snapshots every collection in the store.
func (fs *FileStorage) SaveAll(s *store.Store) error {
	names := s.ListCollections()
	for _, name := range names {
		if err := fs.SaveCollection(s.Collection(name)); err != nil {
			return err
		}
	}
	slog.Info("All collections saved", "count", len(names))
	return nil
}

// LoadAll restores every collection data file found in the data directory.
// A missing directory is not an error; it simply means a fresh store.
func (fs *FileStorage) LoadAll(s *store.Store) error {
	dir := filepath.Join(fs.dataDir, globalconst.CollectionsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Collections directory not found, starting with empty store", "dir", dir)
			return nil
		}
		return fmt.Errorf("failed to read collections directory '%s': %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), globalconst.DBFileExtension) {
			continue
		}
		escaped := strings.TrimSuffix(entry.Name(), globalconst.DBFileExtension)
		name, err := url.PathUnescape(escaped)
		if err != nil {
			slog.Warn("Skipping data file with unreadable name", "file", entry.Name(), "error", err)
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read data file '%s': %w", entry.Name(), err)
		}

		var docs []store.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return fmt.Errorf("failed to parse data file '%s': %w", entry.Name(), err)
		}

		s.Collection(name).LoadDocuments(docs)
		loaded++
	}

	slog.Info("Collections loaded from disk", "count", loaded)
	return nil
}

// SnapshotManager runs scheduled snapshots of the whole store.
type SnapshotManager struct {
	Store            *store.Store
	Storage          *FileStorage
	Interval         time.Duration
	Quit             chan struct{}
	SnapshotsEnabled bool
}

// NewSnapshotManager creates and returns a new instance of SnapshotManager.
func NewSnapshotManager(s *store.Store, storage *FileStorage, interval time.Duration, enabled bool) *SnapshotManager {
	return &SnapshotManager{
		Store:            s,
		Storage:          storage,
		Interval:         interval,
		Quit:             make(chan struct{}),
		SnapshotsEnabled: enabled,
	}
}

// Start begins the scheduled snapshot process. It blocks, so callers run it
// in its own goroutine.
func (sm *SnapshotManager) Start() {
	if !sm.SnapshotsEnabled || sm.Interval <= 0 {
		slog.Info("Snapshots are disabled or interval is invalid. Skipping scheduled snapshots.")
		return
	}

	slog.Info("Scheduled snapshots enabled", "interval", sm.Interval)
	ticker := time.NewTicker(sm.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			slog.Debug("Performing scheduled snapshot")
			if err := sm.Storage.SaveAll(sm.Store); err != nil {
				slog.Error("Scheduled snapshot failed", "error", err)
			}
		case <-sm.Quit:
			slog.Info("Snapshot manager received quit signal. Stopping.")
			return
		}
	}
}

// Stop signals the SnapshotManager to cease scheduled snapshot operations.
func (sm *SnapshotManager) Stop() {
	if sm.SnapshotsEnabled {
		close(sm.Quit)
	}
}
