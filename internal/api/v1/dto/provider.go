package dto

import (
	"time"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/resilience"
)

// ProviderHealth reports the circuit state of a single provider.
type ProviderHealth struct {
	Provider            string     `json:"provider"`
	State               string     `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	OpenedUntil         *time.Time `json:"opened_until,omitempty"`
}

// FromSnapshot converts a circuit snapshot into its API shape.
func FromSnapshot(s resilience.CircuitSnapshot) ProviderHealth {
	h := ProviderHealth{
		Provider:            s.Provider,
		State:               s.StateName,
		ConsecutiveFailures: s.ConsecutiveFailures,
	}
	if !s.OpenedUntil.IsZero() {
		t := s.OpenedUntil
		h.OpenedUntil = &t
	}
	return h
}

// FromSnapshots maps all provider circuits.
func FromSnapshots(snapshots []resilience.CircuitSnapshot) []ProviderHealth {
	out := make([]ProviderHealth, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, FromSnapshot(s))
	}
	return out
}
