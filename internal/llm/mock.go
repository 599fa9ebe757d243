package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests. Responses are returned in the
// order queued; an exhausted mock fails the call.
type MockClient struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     []MockCall
}

type mockResponse struct {
	raw json.RawMessage
	err error
}

// MockCall records one Call invocation.
type MockCall struct {
	Prompt  string
	Content string
}

// NewMockClient creates an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// QueueResponse queues a successful response payload.
func (m *MockClient) QueueResponse(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{raw: json.RawMessage(raw)})
}

// QueueError queues a failing call.
func (m *MockClient) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
}

// Calls returns the recorded invocations.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Call implements Client.
func (m *MockClient) Call(_ context.Context, prompt, content string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Prompt: prompt, Content: content})
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock llm: no responses queued")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.raw, nil
}

// Name implements Client.
func (m *MockClient) Name() string { return "mock" }

var _ Client = (*MockClient)(nil)
