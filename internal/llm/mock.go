package llm

import (
	"context"
	"sync"
)

// Call is one request seen by a MockClient.
type Call struct {
	Prompt       string
	SystemPrompt string
}

// MockClient answers every prompt with Reply, or fails with Err.
type MockClient struct {
	Err   error
	Reply string
	calls []Call
	mu    sync.Mutex
}

// NewMockClient creates a mock that always answers reply.
func NewMockClient(reply string) *MockClient {
	return &MockClient{Reply: reply}
}

// Analyze implements Client.
func (m *MockClient) Analyze(_ context.Context, prompt, systemPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Prompt: prompt, SystemPrompt: systemPrompt})
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Calls returns the requests received so far.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
