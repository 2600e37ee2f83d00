package warehouse

import (
	"context"
	"sync"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
)

// MockClient is a mock implementation of Client for testing
type MockClient struct {
	mu sync.Mutex

	// Control behavior
	QueryFunc func(ctx context.Context, query string) (*frame.Frame, error)
	StartFunc func(ctx context.Context) error

	// Track calls for assertions
	QueryCalls []string
	Started    bool
	Stopped    bool
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{
		QueryCalls: make([]string, 0),
	}
}

// Query implements Client. QueryFunc runs without the mock's lock held so it
// may block.
func (m *MockClient) Query(ctx context.Context, query string) (*frame.Frame, error) {
	m.mu.Lock()
	m.QueryCalls = append(m.QueryCalls, query)
	fn := m.QueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query)
	}

	return &frame.Frame{}, nil
}

// Start implements Client
func (m *MockClient) Start(ctx context.Context) error {
	m.mu.Lock()
	m.Started = true
	fn := m.StartFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}

	return nil
}

// Stop implements Client
func (m *MockClient) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stopped = true

	return nil
}

// Calls returns the number of Query calls so far
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.QueryCalls)
}
