package store

import (
	"context"
	"os"
	"sync"

	"github.com/openziti/rbrowse/kernel/loader"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

// FileStore serves a dataset file from memory and writes every change back
// to the file.
type FileStore struct {
	*MemoryStore
	Path string
	mu   sync.Mutex
}

// NewFileStore loads the dataset at path. A missing file starts empty.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{MemoryStore: NewMemoryStore(), Path: path}
	ds, err := loader.LoadDataset(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := Seed(s.MemoryStore, ds); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed upserts every resource of ds into s.
func Seed(s ResourceStore, ds *loader.Dataset) error {
	ctx := context.Background()
	for clusterId, resources := range ds.Clusters {
		for _, r := range resources {
			if _, err := s.Upsert(ctx, clusterId, r); err != nil {
				return errors.Wrapf(err, "seeding %s in cluster [%s]", r.Key(), clusterId)
			}
		}
	}
	return nil
}

func (s *FileStore) Upsert(ctx context.Context, clusterId string, r model.Resource) (*model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.MemoryStore.Upsert(ctx, clusterId, r)
	if err != nil {
		return nil, err
	}
	if err := s.saveUnsafe(); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *FileStore) Delete(ctx context.Context, clusterId string, kind model.ResourceKind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.MemoryStore.Delete(ctx, clusterId, kind, name); err != nil {
		return err
	}
	return s.saveUnsafe()
}

func (s *FileStore) saveUnsafe() error {
	if err := loader.SaveDataset(s.Path, &loader.Dataset{Clusters: s.MemoryStore.Snapshot()}); err != nil {
		return errors.Wrap(err, "failed to persist dataset")
	}
	return nil
}
