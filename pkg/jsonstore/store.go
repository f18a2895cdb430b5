// Package jsonstore persists named JSON documents in a data directory.
//
// Each collection lives in its own file. Writes replace the file atomically
// (temp file, fsync, rename) so a crash mid-write leaves either the old or
// the new document on disk, never a truncated one. Loads self-heal: a
// missing file is created from the supplied default and an unreadable one
// falls back to the default without being overwritten, so an operator can
// still recover it by hand.
package jsonstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"spadoc/pkg/logger"
)

const backupsDirName = "backups"

// Store manages the documents under one data directory
type Store struct {
	dir    string
	retain int
	log    *logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	known map[string]struct{}
}

// Option configures a Store
type Option func(*Store)

// WithRetention keeps only the newest n backup snapshots. Zero keeps all.
func WithRetention(n int) Option {
	return func(s *Store) { s.retain = n }
}

// WithClock overrides the clock used to name backups
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates the data directory if needed and returns a Store rooted there
func New(dir string, log *logger.Logger, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}

	s := &Store{
		dir:   dir,
		log:   log.Component("jsonstore"),
		now:   time.Now,
		known: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// Register adds collection files to the backup set without loading them
func (s *Store) Register(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.known[name] = struct{}{}
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads the named document. A missing file is initialized with def and
// def is returned; a file that cannot be read or parsed yields def and is
// left untouched. Load never fails.
func Load[T any](s *Store, name string, def T) T {
	s.Register(name)
	log := s.log.WithField("file", name)

	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("Creating collection with default data")
		if err := Save(s, name, def); err != nil {
			log.WithError(err).Error("Failed to persist default data")
		}
		return def
	}
	if err != nil {
		log.WithError(err).Error("Failed to read collection, using default data")
		return def
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.WithError(err).Error("Collection is not valid JSON, using default data")
		return def
	}
	return out
}

// Save writes data as indented JSON, replacing the named document atomically
func Save[T any](s *Store, name string, data T) error {
	s.Register(name)

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := writeAtomic(s.path(name), raw); err != nil {
		s.log.WithError(err).WithField("file", name).Error("Failed to save collection")
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func writeAtomic(target string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

// BackupName formats t the way snapshot directories are named: an ISO-8601
// UTC timestamp with ':' and '.' replaced by '-'.
func BackupName(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// Backup copies every known collection into backups/<timestamp>/ and returns
// the snapshot directory. Collections whose file does not exist yet are skipped.
func (s *Store) Backup() (string, error) {
	dest := filepath.Join(s.dir, backupsDirName, BackupName(s.now()))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	s.mu.Lock()
	names := make([]string, 0, len(s.known))
	for name := range s.known {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)

	copied := 0
	for _, name := range names {
		err := copyFile(s.path(name), filepath.Join(dest, name))
		if errors.Is(err, fs.ErrNotExist) {
			s.log.WithField("file", name).Debug("Collection does not exist yet, skipping backup")
			continue
		}
		if err != nil {
			return "", fmt.Errorf("backup %s: %w", name, err)
		}
		copied++
	}

	s.log.WithFields(map[string]interface{}{
		"path":  dest,
		"files": copied,
	}).Info("Backup created")

	if s.retain > 0 {
		if err := s.prune(); err != nil {
			s.log.WithError(err).Warn("Failed to prune old backups")
		}
	}
	return dest, nil
}

// Backups lists snapshot directory names, oldest first
func (s *Store) Backups() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, backupsDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	// timestamp names sort chronologically
	sort.Strings(names)
	return names, nil
}

func (s *Store) prune() error {
	names, err := s.Backups()
	if err != nil {
		return err
	}
	if len(names) <= s.retain {
		return nil
	}
	for _, name := range names[:len(names)-s.retain] {
		if err := os.RemoveAll(filepath.Join(s.dir, backupsDirName, name)); err != nil {
			return err
		}
		s.log.WithField("backup", name).Info("Removed old backup")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
