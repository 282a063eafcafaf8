// Package memstore keeps users and items in process memory. It satisfies the
// same repository interfaces as the postgres stores and backs the end-to-end
// tests and local runs without a database.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/api/auth"
	"github.com/FACorreiaa/go-item-tracker/internal/api/item"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

var (
	_ auth.AuthRepo = (*UserStore)(nil)
	_ item.ItemRepo = (*ItemStore)(nil)
)

// UserStore is an in-memory auth.AuthRepo.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]types.UserAuth
	now    func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID: make(map[int64]types.UserAuth),
		now:  time.Now,
	}
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*types.UserAuth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email not found: %w", api.ErrNotFound)
}

func (s *UserStore) GetUserByID(_ context.Context, id int64) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d not found: %w", id, api.ErrNotFound)
	}
	return &u.User, nil
}

func (s *UserStore) CreateUser(_ context.Context, email, name, passwordHash string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.Email == email {
			return nil, fmt.Errorf("email already exists: %w", api.ErrConflict)
		}
	}

	s.nextID++
	u := types.UserAuth{
		User: types.User{
			ID:        s.nextID,
			Email:     email,
			Name:      name,
			CreatedAt: s.now().UTC(),
		},
		PasswordHash: passwordHash,
	}
	s.byID[u.ID] = u
	return &u.User, nil
}

// ItemStore is an in-memory item.ItemRepo.
type ItemStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]types.Item
	now    func() time.Time
}

func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[int64]types.Item),
		now:   time.Now,
	}
}

// WithClock replaces the time source used for createdAt and updatedAt.
func (s *ItemStore) WithClock(now func() time.Time) *ItemStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func matches(it types.Item, filter types.ItemFilter) bool {
	if filter.Status != "" && it.Status != filter.Status {
		return false
	}
	if filter.Query == "" {
		return true
	}
	q := strings.ToLower(filter.Query)
	return strings.Contains(strings.ToLower(it.Title), q) ||
		strings.Contains(strings.ToLower(it.Description), q)
}

func (s *ItemStore) List(_ context.Context, filter types.ItemFilter) ([]types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]types.Item, 0, len(s.items))
	for _, it := range s.items {
		if matches(it, filter) {
			items = append(items, it)
		}
	}
	slices.SortFunc(items, func(a, b types.Item) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return items, nil
}

func (s *ItemStore) Get(_ context.Context, id int64) (*types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d not found: %w", id, api.ErrNotFound)
	}
	return &it, nil
}

func (s *ItemStore) Create(_ context.Context, f item.Fields) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	it := types.Item{
		ID:          s.nextID,
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[it.ID] = it
	return &it, nil
}

func (s *ItemStore) Update(_ context.Context, id int64, f item.Fields) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d not found: %w", id, api.ErrNotFound)
	}

	updated := s.now().UTC()
	if floor := it.UpdatedAt.Add(time.Microsecond); updated.Before(floor) {
		updated = floor
	}
	it.Title = f.Title
	it.Description = f.Description
	it.Status = f.Status
	it.UpdatedAt = updated
	s.items[id] = it
	return &it, nil
}

func (s *ItemStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %d not found: %w", id, api.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

// Ping always succeeds; the store lives in process.
func (s *ItemStore) Ping(context.Context) error { return nil }
