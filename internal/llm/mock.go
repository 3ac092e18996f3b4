package llm

import (
	"context"
	"sync"
)

// MockClient implements Client for tests. Responses are consumed in order;
// a response with Err set makes that call fail. When the script runs out the
// last entry repeats.
type MockClient struct {
	mu        sync.Mutex
	name      string
	script    []MockResponse
	callCount int
	Requests  []CompletionRequest
}

// MockResponse is one scripted reply.
type MockResponse struct {
	Content string
	Err     error
}

// NewMockClient builds a scripted mock named model.
func NewMockClient(model string, script ...MockResponse) *MockClient {
	return &MockClient{name: model, script: script}
}

func (m *MockClient) Model() string { return m.name }

// CallCount returns how many completions were requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	idx := m.callCount
	m.callCount++
	if len(m.script) == 0 {
		return &CompletionResponse{Content: ""}, nil
	}
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	entry := m.script[idx]
	if entry.Err != nil {
		return nil, entry.Err
	}
	return &CompletionResponse{Content: entry.Content}, nil
}
