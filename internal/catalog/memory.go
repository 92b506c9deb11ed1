package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*Product
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]*Product)}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return ErrDuplicateID
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

// Get implements Store. The returned product is a copy; mutating it does not
// affect stored state.
func (s *MemoryStore) Get(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, status Status) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		if status != "" && p.Status != status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[string]*Product)
	return nil
}
