package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/futig/joke-flows/internal/entity"
)

const localFilePrefix = "__db_"

var _ VectorStore = &LocalStore{}

type localIndex struct {
	Name     string              `json:"name"`
	Embedder string              `json:"embedder"`
	Entries  []entity.IndexEntry `json:"entries"`
}

// LocalStore keeps every index in a JSON file under dir.
// Writers are serialized and files are replaced atomically.
type LocalStore struct {
	dir string
	mu  sync.RWMutex
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(index string) string {
	return filepath.Join(s.dir, localFilePrefix+index+".json")
}

func (s *LocalStore) Append(_ context.Context, index, embedder string, entries []entity.IndexEntry) error {
	if err := validateIndexName(index); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load(index)
	switch {
	case errors.Is(err, entity.ErrIndexNotFound):
		idx = &localIndex{Name: index, Embedder: embedder}
	case err != nil:
		return err
	case idx.Embedder != embedder:
		return fmt.Errorf("%w: index %q uses %q, got %q", entity.ErrEmbedderMismatch, index, idx.Embedder, embedder)
	}

	idx.Entries = append(idx.Entries, entries...)
	return s.save(idx)
}

func (s *LocalStore) Search(_ context.Context, index, embedder string, query []float32, k int) (entity.RetrievalResult, error) {
	if err := validateIndexName(index); err != nil {
		return nil, err
	}

	s.mu.RLock()
	idx, err := s.load(index)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if idx.Embedder != embedder {
		return nil, fmt.Errorf("%w: index %q uses %q, got %q", entity.ErrEmbedderMismatch, index, idx.Embedder, embedder)
	}
	if len(idx.Entries) == 0 {
		return nil, fmt.Errorf("%w: index %q is empty", entity.ErrIndexNotFound, index)
	}

	return rank(idx.Entries, query, k), nil
}

func (s *LocalStore) Count(_ context.Context, index string) (int, error) {
	if err := validateIndexName(index); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.load(index)
	if errors.Is(err, entity.ErrIndexNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(idx.Entries), nil
}

func (s *LocalStore) Embedder(_ context.Context, index string) (string, error) {
	if err := validateIndexName(index); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.load(index)
	if err != nil {
		return "", err
	}
	return idx.Embedder, nil
}

func (s *LocalStore) load(index string) (*localIndex, error) {
	data, err := os.ReadFile(s.path(index))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", entity.ErrIndexNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("read index %q: %w", index, err)
	}

	var idx localIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index %q: %w", index, err)
	}
	return &idx, nil
}

func (s *LocalStore) save(idx *localIndex) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index %q: %w", idx.Name, err)
	}

	tmp, err := os.CreateTemp(s.dir, localFilePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write index %q: %w", idx.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync index %q: %w", idx.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index %q: %w", idx.Name, err)
	}

	if err := os.Rename(tmp.Name(), s.path(idx.Name)); err != nil {
		return fmt.Errorf("replace index %q: %w", idx.Name, err)
	}
	return nil
}
