package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It lives for the duration of the run,
// which makes it the session-scoped store: a fresh client start sees an
// empty one, exactly like a new browser tab.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	subs   map[string]map[int]func([]byte)
	nextID int
	closed bool
}

// NewMemory creates an empty session-scoped store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]byte),
		subs: make(map[string]map[int]func([]byte)),
	}
}

// Get returns the value for key, or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	// Defensive copy to prevent external modification.
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set writes the value for key and notifies subscribers.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	fns := m.subscribers(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(stored)
	}
	return nil
}

// Delete removes the key and notifies subscribers with a nil value.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	delete(m.data, key)
	fns := m.subscribers(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
	return nil
}

// Subscribe registers fn for changes to key.
func (m *Memory) Subscribe(key string, fn func([]byte)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	if m.subs[key] == nil {
		m.subs[key] = make(map[int]func([]byte))
	}
	m.subs[key][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs[key], id)
	}
}

// Close drops all data and subscriptions.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.data = nil
	m.subs = nil
	return nil
}

// subscribers snapshots the callbacks for key. Caller holds m.mu.
func (m *Memory) subscribers(key string) []func([]byte) {
	set := m.subs[key]
	if len(set) == 0 {
		return nil
	}
	fns := make([]func([]byte), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	return fns
}

// Compile-time interface verification.
var _ Store = (*Memory)(nil)
