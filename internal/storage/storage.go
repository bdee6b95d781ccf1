// Package storage provides the injected client-side key-value stores.
//
// The browser build of the product leans on ambient sessionStorage and
// localStorage; here that becomes an explicit Store dependency with
// defined read/write/subscribe operations and a Close lifecycle, so every
// component receives its store via constructor instead of touching
// globals.
//
// Two implementations:
//   - Memory: process-lifetime scope (conversation context; the analogue
//     of per-tab session storage)
//   - SQLite: durable scope (theme, sidebar state; the analogue of
//     localStorage), backed by modernc.org/sqlite
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// ErrClosed is returned when the store has been closed.
var ErrClosed = errors.New("storage: store closed")

// Well-known keys. Kept in one place so scopes don't collide.
const (
	KeyChatContext      = "chat.context"       // session scope
	KeyTheme            = "ui.theme"           // durable scope
	KeySidebarCollapsed = "ui.sidebar_collapsed"
)

// Store is a small key-value store with change notification.
//
// Semantics are last-write-wins with no locking across processes,
// matching single-user client access. Subscribe callbacks fire after the
// write completes, on the writer's goroutine.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value for key, creating or replacing it.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Subscribe registers fn to run on every Set/Delete of key
	// (nil value on delete). The returned cancel func unregisters it.
	Subscribe(key string, fn func(value []byte)) (cancel func())

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}
