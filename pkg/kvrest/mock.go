package kvrest

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client for tests
type MockClient struct {
	mu      sync.Mutex
	data    map[string][]byte
	baseURL string
	getErr  error
	setErr  error
	pingErr error
	sets    int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithValue preloads a key
func WithValue(key string, value []byte) MockOption {
	return func(m *MockClient) {
		m.data[key] = value
	}
}

// WithGetError sets an error to return from Get
func WithGetError(err error) MockOption {
	return func(m *MockClient) {
		m.getErr = err
	}
}

// WithSetError sets an error to return from Set
func WithSetError(err error) MockOption {
	return func(m *MockClient) {
		m.setErr = err
	}
}

// WithPingError sets an error to return from Ping
func WithPingError(err error) MockOption {
	return func(m *MockClient) {
		m.pingErr = err
	}
}

// NewMockClient creates a new empty mock store
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		data:    make(map[string][]byte),
		baseURL: "https://mock-kv.local",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MockClient) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	m.sets++
	return nil
}

func (m *MockClient) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *MockClient) BaseURL() string {
	return m.baseURL
}

// SetCount returns how many successful Set calls were made
func (m *MockClient) SetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

var _ Client = (*MockClient)(nil)
