package posts

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps posts in memory. The zero value is not usable; call
// NewMemoryStore.
type MemoryStore struct {
	mu    sync.RWMutex
	posts map[int64]Post
	next  int64
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts: make(map[int64]Post),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns up to opts.Limit posts ordered by creation time, ties broken
// by ID. A non-positive limit returns every post.
func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]Post, error) {
	s.mu.RLock()
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Post) int {
		n := a.CreatedAt.Compare(b.CreatedAt)
		if n == 0 {
			n = cmp.Compare(a.ID, b.ID)
		}
		if opts.Order == Desc {
			return -n
		}
		return n
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) Create(_ context.Context, np NewPost) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	now := s.now()
	p := Post{ID: s.next, Title: np.Title, Body: np.Body, CreatedAt: now, UpdatedAt: now}
	s.posts[p.ID] = p
	return &p, nil
}

func (s *MemoryStore) Update(_ context.Context, id int64, np NewPost) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Title, p.Body, p.UpdatedAt = np.Title, np.Body, s.now()
	s.posts[id] = p
	return &p, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}
