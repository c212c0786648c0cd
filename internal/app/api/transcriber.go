// Package api defines the external transcription collaborator: the interface
// one billed attempt goes through, and the registry that resolves a
// router-selected provider name to a concrete implementation.
package api

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
)

// Transcriber performs a single transcription attempt for a job. The failure
// message of a returned error is the input to error classification, so
// implementations should surface the vendor's response text.
type Transcriber interface {
	Transcribe(ctx context.Context, job *model.Job) (string, error)
}

// Registry resolves provider names to transcribers. Names are matched the
// way the router and circuit breaker key them: case-insensitively.
type Registry struct {
	mu           sync.RWMutex
	transcribers map[string]Transcriber
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		transcribers: make(map[string]Transcriber),
	}
}

// Register adds a transcriber under the given provider name, replacing any
// previous registration.
func (r *Registry) Register(name string, transcriber Transcriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcribers[normalize(name)] = transcriber
}

// Resolve returns the transcriber registered under name.
func (r *Registry) Resolve(name string) (Transcriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transcribers[normalize(name)]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrProviderNotFound, "unknown provider %q", name)
	}
	return t, nil
}

// Names returns all registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.transcribers))
	for name := range r.transcribers {
		names = append(names, name)
	}
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
