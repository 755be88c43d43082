package telemetry_test

import (
	"context"
	"sync"
	"time"
)

// mockRenderer records every callback so tests can assert on stage
// names, streamed output and completion errors.
type mockRenderer struct {
	mu        sync.Mutex
	started   []string
	logs      []byte
	logCalls  int
	completed map[string]error
}

func (m *mockRenderer) Start(_ context.Context) error { return nil }
func (m *mockRenderer) Stop() error                   { return nil }
func (m *mockRenderer) Wait() error                   { return nil }

func (m *mockRenderer) OnStageStart(name, _, _ string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, name)
}

func (m *mockRenderer) OnStageLog(_ string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logCalls++
	m.logs = append(m.logs, data...)
}

func (m *mockRenderer) OnStageComplete(name string, _ time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completed == nil {
		m.completed = make(map[string]error)
	}
	m.completed[name] = err
}
