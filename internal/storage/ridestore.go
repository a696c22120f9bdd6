package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/example/sharego/internal/models"
)

var (
	ErrNotFound      = errors.New("ride post not found")
	ErrAlreadyBooked = errors.New("ride post already booked")
)

// RideStore defines persistence for the RidePost collection. ListUnbooked
// must return posts in insertion order, and Book must be an atomic
// conditional transition so concurrent attempts produce exactly one winner.
type RideStore interface {
	Create(ctx context.Context, p *models.RidePost) error
	Get(ctx context.Context, id string) (*models.RidePost, error)
	ListUnbooked(ctx context.Context, role models.Role) ([]*models.RidePost, error)
	Book(ctx context.Context, id string, cp models.Counterparty) (*models.RidePost, error)
	Delete(ctx context.Context, id string) error
}

type MemoryStore struct {
	mu    sync.Mutex
	posts map[string]*models.RidePost
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: make(map[string]*models.RidePost)}
}

func (m *MemoryStore) Create(ctx context.Context, p *models.RidePost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.posts[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.RidePost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *MemoryStore) ListUnbooked(ctx context.Context, role models.Role) ([]*models.RidePost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.RidePost, 0, len(m.order))
	for _, id := range m.order {
		p := m.posts[id]
		if p == nil || p.Booked || p.Role != role {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

// Book performs the check-and-set under the store lock, so at most one
// concurrent caller observes booked=false.
func (m *MemoryStore) Book(ctx context.Context, id string, cp models.Counterparty) (*models.RidePost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Booked {
		return nil, ErrAlreadyBooked
	}
	p.Booked = true
	c := cp
	p.Counterparty = &c
	out := *p
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	if p.Booked {
		return ErrAlreadyBooked
	}
	delete(m.posts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
