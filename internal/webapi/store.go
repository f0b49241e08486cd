package webapi

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/store"
)

// SubjectStore provides read access to stored subject bulletins.
type SubjectStore interface {
	// List returns summaries for all stored subjects, sorted by ID.
	List() ([]store.Entry, error)
	// Get returns the bulletin for a single subject. A miss is reported as
	// store.ErrNotFound.
	Get(id string) (*bulletin.File, error)
}

// The SQLite store is the canonical implementation.
var _ SubjectStore = (*store.Store)(nil)

// DirStore serves bulletin YAML files straight from a directory, with no
// database involved.
type DirStore struct {
	dir string

	mu     sync.RWMutex
	files  map[string]*bulletin.File
	loaded bool
}

// NewDirStore creates a DirStore that reads bulletins from dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{
		dir:   dir,
		files: make(map[string]*bulletin.File),
	}
}

// load reads all bulletin files from the configured directory. Files that
// fail to parse or validate are skipped.
func (ds *DirStore) load() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.files = make(map[string]*bulletin.File)

	if ds.dir == "" {
		ds.loaded = true
		return nil
	}

	entries, err := os.ReadDir(ds.dir)
	if err != nil {
		if os.IsNotExist(err) {
			ds.loaded = true
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		f, err := bulletin.Load(filepath.Join(ds.dir, name))
		if err != nil {
			continue
		}
		ds.files[f.ID] = f
	}

	ds.loaded = true
	return nil
}

// ensureLoaded loads data if not already loaded.
func (ds *DirStore) ensureLoaded() error {
	ds.mu.RLock()
	if ds.loaded {
		ds.mu.RUnlock()
		return nil
	}
	ds.mu.RUnlock()
	return ds.load()
}

// Reload forces a fresh reload of all bulletin files from disk.
func (ds *DirStore) Reload() error {
	return ds.load()
}

// List returns summaries for all loaded bulletins, sorted by ID.
func (ds *DirStore) List() ([]store.Entry, error) {
	if err := ds.ensureLoaded(); err != nil {
		return nil, err
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	entries := make([]store.Entry, 0, len(ds.files))
	for _, f := range ds.files {
		entries = append(entries, store.Entry{
			ID:     f.ID,
			Name:   f.Name,
			Level:  f.Level,
			Grades: len(f.Boundaries),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Get returns the bulletin with the given ID.
func (ds *DirStore) Get(id string) (*bulletin.File, error) {
	if err := ds.ensureLoaded(); err != nil {
		return nil, err
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	f, ok := ds.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return f, nil
}

// Ensure DirStore satisfies SubjectStore.
var _ SubjectStore = (*DirStore)(nil)
