package jsonstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spadoc/pkg/logger"
)

type post struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), logger.NewNop(), opts...)
	require.NoError(t, err)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	posts := []post{{ID: 1, Title: "Winterize"}, {ID: 2, Title: "Drain"}}

	require.NoError(t, Save(s, "blogPosts.json", posts))

	got := Load(s, "blogPosts.json", []post{})
	assert.Equal(t, posts, got)
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, Save(s, "a.json", map[string]int{"x": 1}))

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"x\": 1\n}", string(raw))
}

func TestLoadMissingPersistsDefault(t *testing.T) {
	s := newTestStore(t)
	def := []post{{ID: 7, Title: "Seed"}}

	first := Load(s, "blogPosts.json", def)
	assert.Equal(t, def, first)
	assert.FileExists(t, filepath.Join(s.Dir(), "blogPosts.json"))

	// second load reads the file written by the first and returns the same value
	second := Load(s, "blogPosts.json", []post{})
	assert.Equal(t, def, second)
}

func TestLoadCorruptReturnsDefaultAndKeepsFile(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Dir(), "analytics.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	got := Load(s, "analytics.json", map[string]int{"fresh": 1})
	assert.Equal(t, map[string]int{"fresh": 1}, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, Save(s, "gallery.json", []int{i}))
	}

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gallery.json", entries[0].Name())
}

func TestSaveFailsWhenDirectoryGone(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.RemoveAll(s.Dir()))

	err := Save(s, "x.json", []int{1})
	assert.Error(t, err)
}

func TestBackupCopiesKnownCollections(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return at }))

	require.NoError(t, Save(s, "blogPosts.json", []post{{ID: 1}}))
	s.Register("mediaLibrary.json") // never written, must be skipped

	dest, err := s.Backup()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), "backups", "2025-03-04T05-06-07-890Z"), dest)
	assert.FileExists(t, filepath.Join(dest, "blogPosts.json"))
	assert.NoFileExists(t, filepath.Join(dest, "mediaLibrary.json"))
}

func TestBackupRetention(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s := newTestStore(t, WithRetention(2), WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	require.NoError(t, Save(s, "blogPosts.json", []post{}))

	for i := 0; i < 4; i++ {
		_, err := s.Backup()
		require.NoError(t, err)
	}

	names, err := s.Backups()
	require.NoError(t, err)
	assert.Equal(t, []string{
		BackupName(base.Add(3 * time.Minute)),
		BackupName(base.Add(4 * time.Minute)),
	}, names)
}
