package testutil

import (
	"context"
	"sync"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
)

// TranscribeCall records a single invocation of the mock.
type TranscribeCall struct {
	JobID    string
	Provider string
}

// MockTranscriber is a scriptable api.Transcriber for orchestrator and
// router tests. Results are consumed in order; once the script is empty
// the mock keeps returning the last entry.
type MockTranscriber struct {
	mu sync.Mutex

	Provider string
	script   []scriptedResult
	calls    []TranscribeCall
}

type scriptedResult struct {
	text string
	err  error
}

func NewMockTranscriber(provider string) *MockTranscriber {
	return &MockTranscriber{Provider: provider}
}

// Returns queues a successful result.
func (m *MockTranscriber) Returns(text string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedResult{text: text})
	return m
}

// Fails queues a failing result.
func (m *MockTranscriber) Fails(err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptedResult{err: err})
	return m
}

func (m *MockTranscriber) Transcribe(_ context.Context, job *model.Job) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, TranscribeCall{JobID: job.ID, Provider: m.Provider})
	if len(m.script) == 0 {
		return "", nil
	}
	next := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	return next.text, next.err
}

// Calls returns a copy of the recorded invocations.
func (m *MockTranscriber) Calls() []TranscribeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TranscribeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount reports how many times Transcribe ran.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
