// Package ownercache caches resolved owner (responsible employee) names.
// Owner references in document listings frequently arrive without a display
// name, and resolving each one is an extra platform request, so resolved
// names are cached across runs.
package ownercache

import (
	"context"
	"sync"
)

// Store resolves owner IDs to previously seen display names.
type Store interface {
	Get(ctx context.Context, ownerID string) (string, bool)
	Set(ctx context.Context, ownerID, name string)
}

// Memory is the single-process implementation.
type Memory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemory() *Memory {
	return &Memory{names: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, ownerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[ownerID]
	return name, ok
}

func (m *Memory) Set(_ context.Context, ownerID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[ownerID] = name
}
