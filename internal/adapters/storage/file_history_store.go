// Package storage keeps site report history as JSON files on local disk.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/repositories"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

const (
	filePrefix = "history_"
	fileSuffix = ".json"
)

// FileHistoryStore implements repositories.HistoryRepository with one JSON
// array per site, written atomically through a temp file and rename.
type FileHistoryStore struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	mu        sync.Mutex
}

// Option configures a FileHistoryStore.
type Option func(*FileHistoryStore)

// WithClock overrides the clock used for retention.
func WithClock(now func() time.Time) Option {
	return func(s *FileHistoryStore) { s.now = now }
}

// NewFileHistoryStore creates the history directory if needed.
func NewFileHistoryStore(dir string, retentionDays int, opts ...Option) (*FileHistoryStore, error) {
	if retentionDays <= 0 {
		retentionDays = repositories.DefaultRetentionDays
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("failed to create history directory", err)
	}
	s := &FileHistoryStore{
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ repositories.HistoryRepository = (*FileHistoryStore)(nil)

func (s *FileHistoryStore) path(siteURL string) string {
	key := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(entities.SiteKey(siteURL))
	return filepath.Join(s.dir, filePrefix+key+fileSuffix)
}

// read returns the stored records. A missing file is an empty history.
// Records are decoded one at a time and leniently; intact is false when the
// file is not a JSON array or holds an element that is not a record. Such a
// file is moved aside before it is rewritten.
func (s *FileHistoryStore) read(siteURL string) (records []entities.HistoryRecord, intact bool, err error) {
	data, err := os.ReadFile(s.path(siteURL))
	if os.IsNotExist(err) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to read history", err)
	}

	site := entities.SiteKey(siteURL)
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("site", site).Msg("Unreadable history file, treating as empty")
		return nil, false, nil
	}

	intact = true
	records = make([]entities.HistoryRecord, 0, len(raw))
	for i, item := range raw {
		var record entities.HistoryRecord
		if err := json.Unmarshal(item, &record); err != nil {
			log.Warn().Err(err).Str("site", site).Int("index", i).Msg("Skipping unreadable history record")
			intact = false
			continue
		}
		records = append(records, record)
	}
	return records, intact, nil
}

// moveAside renames the site file so a rewrite cannot lose what it held.
func (s *FileHistoryStore) moveAside(siteURL string) error {
	target := s.path(siteURL)
	backup := fmt.Sprintf("%s.corrupt-%s", target, s.now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(target, backup); err != nil {
		return apperrors.NewInternalError("failed to preserve unreadable history file", err)
	}
	log.Warn().Str("site", entities.SiteKey(siteURL)).Str("backup", backup).Msg("Moved unreadable history file aside")
	return nil
}

func (s *FileHistoryStore) write(siteURL string, records []entities.HistoryRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode history", err)
	}

	target := s.path(siteURL)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return apperrors.NewInternalError("failed to write history", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to write history", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("failed to write history", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return apperrors.NewInternalError("failed to replace history file", err)
	}
	return nil
}

// LoadTail returns up to n most recent snapshots, oldest first.
func (s *FileHistoryStore) LoadTail(ctx context.Context, siteURL string, n int) ([]entities.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	records, _, err := s.read(siteURL)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	snapshots := make([]entities.Snapshot, len(records))
	for i, r := range records {
		snapshots[i] = r.Snapshot()
	}
	return snapshots, nil
}

// Append adds a record and drops records older than the retention window.
func (s *FileHistoryStore) Append(ctx context.Context, siteURL string, record *entities.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewValidationError("history record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, intact, err := s.read(siteURL)
	if err != nil {
		return err
	}
	if !intact {
		if err := s.moveAside(siteURL); err != nil {
			return err
		}
	}

	entry := *record
	if entry.Date.IsZero() {
		entry.Date = entities.NewTimestamp(s.now())
	}
	records = append(records, entry)

	cutoff := s.now().Add(-s.retention)
	kept := records[:0]
	for _, r := range records {
		// Records with no known time are kept rather than guessed expired.
		if at := r.RecordedAt(); at.IsZero() || at.After(cutoff) {
			kept = append(kept, r)
		}
	}
	if dropped := len(records) - len(kept); dropped > 0 {
		log.Debug().Str("site", entities.SiteKey(siteURL)).Int("dropped", dropped).Msg("Pruned expired history")
	}

	return s.write(siteURL, kept)
}

// Latest returns the most recent record.
func (s *FileHistoryStore) Latest(ctx context.Context, siteURL string) (*entities.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	records, _, err := s.read(siteURL)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no reports found for %s", entities.SiteKey(siteURL)))
	}
	latest := records[len(records)-1]
	return &latest, nil
}

// Count returns the number of stored records.
func (s *FileHistoryStore) Count(ctx context.Context, siteURL string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	records, _, err := s.read(siteURL)
	s.mu.Unlock()
	return len(records), err
}

// ListSites returns the site keys with a history file.
func (s *FileHistoryStore) ListSites(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list history files", err)
	}

	sites := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), filePrefix), fileSuffix)
		if name != "" {
			sites = append(sites, name)
		}
	}
	sort.Strings(sites)
	return sites, nil
}
