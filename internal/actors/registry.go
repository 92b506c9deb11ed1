package actors

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when an actor lookup finds no matching record.
var ErrNotFound = errors.New("actor not found")

// ErrDuplicateID is returned when a registration reuses an existing actor id.
var ErrDuplicateID = errors.New("actor id already registered")

// Registry is the persistence interface for actors.
// Both MemoryRegistry and PostgresRegistry implement this interface.
type Registry interface {
	Create(ctx context.Context, a *Actor) error
	Get(ctx context.Context, id string) (*Actor, error)
	List(ctx context.Context) ([]*Actor, error)
}

// MemoryRegistry is an in-memory, thread-safe Registry implementation.
type MemoryRegistry struct {
	mu     sync.RWMutex
	actors map[string]*Actor
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{actors: make(map[string]*Actor)}
}

// Create implements Registry.
func (r *MemoryRegistry) Create(_ context.Context, a *Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[a.ID]; ok {
		return ErrDuplicateID
	}
	cp := *a
	r.actors[a.ID] = &cp
	return nil
}

// Get implements Registry.
func (r *MemoryRegistry) Get(_ context.Context, id string) (*Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// List implements Registry.
func (r *MemoryRegistry) List(_ context.Context) ([]*Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Actor, 0, len(r.actors))
	for _, a := range r.actors {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
