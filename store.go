package bankfeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned by stores when no file has the requested id.
var ErrNotFound = errors.New("file not found")

// File is the unit handled by a Store: an opaque text blob keyed by upload
// id, with free-form string metadata (original filename, owner, ...).
type File struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Store is the persistence collaborator of the pipeline. The pipeline only
// ever performs whole-blob read-modify-write cycles through it; it never
// stores partial state. There is no optimistic concurrency: callers driving
// several writers must serialize writes per file id.
type Store interface {
	Get(id string) (File, error)
	// Put creates or replaces a file.
	Put(f File) error
	// Update replaces an existing file and fails with ErrNotFound otherwise.
	Update(f File) error
	Delete(id string) error
	// List returns all known ids, sorted.
	List() ([]string, error)
}

// MemStore is a map-backed Store, safe for concurrent use. It backs tests
// and short-lived pipelines.
type MemStore struct {
	mu    sync.RWMutex
	files map[string]File
}

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]File)}
}

func (s *MemStore) Get(id string) (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return File{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return f, nil
}

func (s *MemStore) Put(f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = f
	return nil
}

func (s *MemStore) Update(f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.ID]; !ok {
		return fmt.Errorf("update %q: %w", f.ID, ErrNotFound)
	}
	s.files[f.ID] = f
	return nil
}

func (s *MemStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(s.files, id)
	return nil
}

func (s *MemStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// DirStore persists each file under a folder: the blob as <id>.csv and its
// metadata as a <id>.meta.json sidecar.
type DirStore struct {
	dir string
}

const (
	blobExt = ".csv"
	metaExt = ".meta.json"
)

// NewDirStore opens (creating if needed) a directory-backed store.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot open store folder %q: %w", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) blobPath(id string) string { return filepath.Join(s.dir, id+blobExt) }
func (s *DirStore) metaPath(id string) string { return filepath.Join(s.dir, id+metaExt) }

func (s *DirStore) Get(id string) (File, error) {
	content, err := os.ReadFile(s.blobPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return File{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return File{}, fmt.Errorf("get %q: %w", id, err)
	}
	f := File{ID: id, Content: string(content)}
	meta, err := os.ReadFile(s.metaPath(id))
	if err == nil {
		if err := json.Unmarshal(meta, &f.Metadata); err != nil {
			return File{}, fmt.Errorf("get %q: corrupt metadata: %w", id, err)
		}
	}
	return f, nil
}

func (s *DirStore) Put(f File) error {
	if err := os.WriteFile(s.blobPath(f.ID), []byte(f.Content), 0644); err != nil {
		return fmt.Errorf("put %q: %w", f.ID, err)
	}
	if len(f.Metadata) == 0 {
		return nil
	}
	meta, err := json.MarshalIndent(f.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("put %q: %w", f.ID, err)
	}
	if err := os.WriteFile(s.metaPath(f.ID), meta, 0644); err != nil {
		return fmt.Errorf("put %q: %w", f.ID, err)
	}
	return nil
}

func (s *DirStore) Update(f File) error {
	if _, err := os.Stat(s.blobPath(f.ID)); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("update %q: %w", f.ID, ErrNotFound)
	}
	return s.Put(f)
}

func (s *DirStore) Delete(id string) error {
	if err := os.Remove(s.blobPath(id)); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	// The sidecar is optional, so its absence is not an error.
	if err := os.Remove(s.metaPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	return nil
}

func (s *DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list store folder %q: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, blobExt) || strings.HasSuffix(name, metaExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, blobExt))
	}
	slices.Sort(ids)
	return ids, nil
}
