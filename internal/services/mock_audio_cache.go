package services

import (
	"context"
	"sync"
	"time"
)

// MockAudioCache is an in-memory AudioCache for tests. TTLs are recorded, not enforced.
type MockAudioCache struct {
	LoadFunc  func(ctx context.Context, key string) ([]byte, error)
	StoreFunc func(ctx context.Context, key string, audio []byte, ttl time.Duration) error

	LoadCalls  []string
	StoreCalls []StoreAudioCall

	audio map[string][]byte
	mu    sync.Mutex
}

type StoreAudioCall struct {
	Key   string
	Bytes int
	TTL   time.Duration
}

var _ AudioCache = (*MockAudioCache)(nil)

func NewMockAudioCache() *MockAudioCache {
	return &MockAudioCache{audio: make(map[string][]byte)}
}

func (m *MockAudioCache) LoadAudio(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls = append(m.LoadCalls, key)
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, key)
	}
	return m.audio[key], nil
}

func (m *MockAudioCache) StoreAudio(ctx context.Context, key string, audio []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreCalls = append(m.StoreCalls, StoreAudioCall{Key: key, Bytes: len(audio), TTL: ttl})
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, key, audio, ttl)
	}
	m.audio[key] = audio
	return nil
}
