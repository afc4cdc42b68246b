package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// MockStorage is an in-memory Storage for tests.
// Adventures are stored as JSON so callers never share memory with the store.
type MockStorage struct {
	mu         sync.RWMutex
	adventures map[uuid.UUID][]byte
	locks      map[uuid.UUID]string
	pingError  error
	saveError  error
	saveCalls  int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		adventures: make(map[uuid.UUID][]byte),
		locks:      make(map[uuid.UUID]string),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail every save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SaveCalls returns how many times SaveAdventure was called
func (m *MockStorage) SaveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCalls
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveAdventure mocks saving an adventure
func (m *MockStorage) SaveAdventure(ctx context.Context, a *adventure.Adventure) error {
	if a == nil {
		return errors.New("adventure cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveError != nil {
		return m.saveError
	}

	a.UpdatedAt = time.Now()
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	m.adventures[a.ID] = data
	return nil
}

// LoadAdventure mocks loading an adventure
func (m *MockStorage) LoadAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.adventures[id]
	if !exists {
		return nil, nil
	}
	var a adventure.Adventure
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAdventure mocks deleting an adventure
func (m *MockStorage) DeleteAdventure(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.adventures, id)
	return nil
}

// TryLock mocks taking the generation lock
func (m *MockStorage) TryLock(ctx context.Context, id uuid.UUID) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return "", false, nil
	}
	token := uuid.New().String()
	m.locks[id] = token
	return token, true, nil
}

// Unlock mocks releasing the generation lock
func (m *MockStorage) Unlock(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] != token {
		return ErrLockNotHeld
	}
	delete(m.locks, id)
	return nil
}

// IsLocked mocks checking the generation lock
func (m *MockStorage) IsLocked(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, held := m.locks[id]
	return held, nil
}
