package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/repository/contract"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store keeps projects, documents and chunks in process memory. It backs
// STORAGE_DRIVER=memory and the service tests. Writes are applied
// immediately; Rollback does not undo them.
type Store struct {
	mu        sync.RWMutex
	seq       uint64
	order     map[uuid.UUID]uint64
	projects  map[uuid.UUID]*entity.Project
	documents map[uuid.UUID]*entity.Document
	chunks    map[uuid.UUID]*entity.Chunk
}

func NewStore() *Store {
	return &Store{
		order:     make(map[uuid.UUID]uint64),
		projects:  make(map[uuid.UUID]*entity.Project),
		documents: make(map[uuid.UUID]*entity.Document),
		chunks:    make(map[uuid.UUID]*entity.Chunk),
	}
}

// track must be called with mu held.
func (s *Store) track(id uuid.UUID) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

type UnitOfWork struct {
	store  *Store
	active bool
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return fmt.Errorf("no transaction to rollback")
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) ProjectRepository() contract.ProjectRepository {
	return &ProjectRepository{store: u.store}
}

func (u *UnitOfWork) DocumentRepository() contract.DocumentRepository {
	return &DocumentRepository{store: u.store}
}

func (u *UnitOfWork) ChunkRepository() contract.ChunkRepository {
	return &ChunkRepository{store: u.store}
}

func matches(record interface{}, specs []specification.Specification) bool {
	for _, spec := range specs {
		if m, ok := spec.(specification.Matcher); ok && !m.Matches(record) {
			return false
		}
	}
	return true
}

func window[T any](records []T, specs []specification.Specification) []T {
	for _, spec := range specs {
		w, ok := spec.(specification.Windower)
		if !ok {
			continue
		}
		limit, offset := w.Window()
		if offset >= len(records) {
			return records[:0]
		}
		if offset > 0 {
			records = records[offset:]
		}
		if limit > 0 && limit < len(records) {
			records = records[:limit]
		}
	}
	return records
}

func stamp(createdAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
}

// sortChunks orders chunks by document upload order, then chunk index.
// Must be called with mu held.
func (s *Store) sortChunks(chunks []*entity.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		a, b := chunks[i], chunks[j]
		if a.DocumentId != b.DocumentId {
			return s.order[a.DocumentId] < s.order[b.DocumentId]
		}
		return a.ChunkIndex < b.ChunkIndex
	})
}
