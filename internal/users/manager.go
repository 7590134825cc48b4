package users

import (
	"context"
	"fmt"
	"sync"

	"github.com/alfagnish/users-api/internal/models"
	"github.com/alfagnish/users-api/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Manager runs the user operations on top of a Store. Mutations hold the
// write lock for the whole read-modify-write sequence so concurrent
// requests never lose each other's changes. All public methods are safe for
// concurrent use.
type Manager struct {
	mu    sync.RWMutex
	store store.Store
	log   logrus.FieldLogger
}

// NewManager creates a Manager over s.
func NewManager(s store.Store, log logrus.FieldLogger) *Manager {
	return &Manager{
		store: s,
		log:   log,
	}
}

// List returns every user in insertion order.
func (m *Manager) List(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.store.ReadAll(ctx)
}

// Get returns the user with the given id or ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all, err := m.store.ReadAll(ctx)
	if err != nil {
		return models.User{}, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	return all[i], nil
}

// Create validates in, assigns a fresh id and appends the new user.
func (m *Manager) Create(ctx context.Context, in Input) (models.User, error) {
	if err := in.validateCreate(); err != nil {
		return models.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.store.ReadAll(ctx)
	if err != nil {
		return models.User{}, err
	}

	id := uuid.NewString()
	for indexOf(all, id) >= 0 {
		id = uuid.NewString()
	}

	u := models.User{
		ID:       id,
		Username: *in.Username,
		Age:      *in.Age,
		Hobbies:  append([]string{}, (*in.Hobbies)...),
	}
	if err := m.store.WriteAll(ctx, append(all, u)); err != nil {
		return models.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	m.log.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

// Update overwrites the supplied fields of an existing user. Fields left nil
// in keep their previous value.
func (m *Manager) Update(ctx context.Context, id string, in Input) (models.User, error) {
	if err := in.validateUpdate(); err != nil {
		return models.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.store.ReadAll(ctx)
	if err != nil {
		return models.User{}, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.User{}, ErrNotFound
	}

	u := &all[i]
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
	if in.Hobbies != nil {
		u.Hobbies = append([]string{}, (*in.Hobbies)...)
	}

	if err := m.store.WriteAll(ctx, all); err != nil {
		return models.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	m.log.WithField("user_id", id).Info("user updated")
	return *u, nil
}

// Delete removes the user with the given id or returns ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.store.ReadAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(all, id)
	if i < 0 {
		return ErrNotFound
	}

	all = append(all[:i], all[i+1:]...)
	if err := m.store.WriteAll(ctx, all); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	m.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// Reset empties the collection.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset users: %w", err)
	}
	return nil
}

func indexOf(all []models.User, id string) int {
	for i, u := range all {
		if u.ID == id {
			return i
		}
	}
	return -1
}
