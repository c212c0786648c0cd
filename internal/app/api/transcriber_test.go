package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/testutil"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	registry := NewRegistry()
	mock := testutil.NewMockTranscriber("soniox")
	registry.Register("Soniox", mock)

	// Lookup is case-insensitive and trims whitespace.
	for _, name := range []string{"soniox", "SONIOX", "  soniox  "} {
		got, err := registry.Resolve(name)
		require.NoError(t, err, name)
		assert.Same(t, mock, got)
	}
}

func TestRegistry_ResolveUnknownProvider(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Resolve("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProviderNotFound)
	assert.Contains(t, err.Error(), `unknown provider "nonexistent"`)
}

func TestRegistry_Names(t *testing.T) {
	registry := NewRegistry()
	registry.Register("soniox", testutil.NewMockTranscriber("soniox"))
	registry.Register("mistral_async", testutil.NewMockTranscriber("mistral_async"))

	names := registry.Names()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "soniox")
	assert.Contains(t, names, "mistral_async")
}
