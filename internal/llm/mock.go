package llm

import "context"

// MockClient is a deterministic ChatClient for tests.
type MockClient struct {
	Response string
	Err      error

	Calls        int
	LastMessages []Message
}

func (m *MockClient) Chat(_ context.Context, messages []Message) (string, error) {
	m.Calls++
	m.LastMessages = messages
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
