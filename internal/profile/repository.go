package profile

import (
	"context"
	"sync"
)

// Repository defines the interface for profile persistence.
type Repository interface {
	// Get retrieves a profile by ID.
	Get(ctx context.Context, id string) (*Profile, error)

	// Create stores a new profile.
	Create(ctx context.Context, p *Profile) error

	// Update replaces an existing profile.
	// Returns ErrProfileNotFound if the profile doesn't exist.
	Update(ctx context.Context, p *Profile) error

	// Delete removes a profile. Deleting a missing profile is not an error.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for local development and testing.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// Get retrieves a profile by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return copyProfile(p), nil
}

// Create stores a new profile.
func (r *InMemoryRepository) Create(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[p.ID] = copyProfile(p)
	return nil
}

// Update replaces an existing profile.
func (r *InMemoryRepository) Update(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; !ok {
		return ErrProfileNotFound
	}
	r.profiles[p.ID] = copyProfile(p)
	return nil
}

// Delete removes a profile.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.profiles, id)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
