package serialsink

import (
	"bytes"
	"sync"
)

// mockPort records writes and can be told to fail.
type mockPort struct {
	mu         sync.Mutex
	written    bytes.Buffer
	writes     int
	writeError error
	closed     bool
}

func (m *mockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return 0, m.writeError
	}
	m.writes++
	return m.written.Write(p)
}

func (m *mockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockPort) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}
