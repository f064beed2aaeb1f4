package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/roleverse/roleverse/internal/store"
)

// metadataTTL bounds how long audio file metadata stays in the record
// store. Files themselves are removed by CleanupOlderThan.
const metadataTTL = 24 * time.Hour

// FileInfo describes one stored audio file.
type FileInfo struct {
	ID        string    `json:"file_id"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store writes synthesized audio to disk and serves it by URL. Metadata is
// kept in the record store so handlers can resolve ids without touching the
// filesystem.
type Store struct {
	dir     string
	baseURL string
	records store.Store
}

// NewStore creates the upload directory if needed. baseURL is the public
// path prefix the files are served under, e.g. /static/uploads/audio.
func NewStore(dir, baseURL string, records store.Store) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: baseURL, records: records}, nil
}

// Dir returns the upload directory, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}

// SaveAudio persists one audio payload and returns its public URL.
func (s *Store) SaveAudio(ctx context.Context, data []byte, format string) (FileInfo, error) {
	if len(data) == 0 {
		return FileInfo{}, fmt.Errorf("empty audio payload")
	}
	if format == "" {
		format = "wav"
	}

	id := uuid.New().String()
	name := id + "." + format
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return FileInfo{}, fmt.Errorf("write audio file: %w", err)
	}

	info := FileInfo{
		ID:        id,
		Path:      path,
		URL:       s.baseURL + "/" + name,
		Format:    format,
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return FileInfo{}, fmt.Errorf("marshal audio metadata: %w", err)
	}
	if err := s.records.Set(ctx, "audio_file:"+id, string(raw), metadataTTL); err != nil {
		// The file is already on disk and addressable; losing metadata
		// only weakens cleanup.
		log.Printf("warning: audio metadata save failed for %s: %v", id, err)
	}
	return info, nil
}

// Get resolves stored metadata by file id.
func (s *Store) Get(ctx context.Context, id string) (FileInfo, bool, error) {
	raw, ok, err := s.records.Get(ctx, "audio_file:"+id)
	if err != nil || !ok {
		return FileInfo{}, false, err
	}
	var info FileInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return FileInfo{}, false, fmt.Errorf("decode audio metadata: %w", err)
	}
	return info, true, nil
}

// CleanupOlderThan deletes audio files whose modification time is older
// than the cutoff and reports how many were removed.
func (s *Store) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			log.Printf("warning: remove stale audio file %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
