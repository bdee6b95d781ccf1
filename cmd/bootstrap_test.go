package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/log"
	"github.com/panacea-app/panacea-cli/internal/storage"
)

func newTestApp(t *testing.T, baseURL string, prefs storage.Store) *app {
	t.Helper()
	client, err := api.New(api.Config{BaseURL: baseURL, DevMode: true}, nil)
	require.NoError(t, err)
	if prefs == nil {
		prefs = storage.NewMemory()
	}
	return &app{logger: log.NewNop(), client: client, prefs: prefs}
}

func TestNewChatSession_ContextScopedToSession(t *testing.T) {
	t.Parallel()

	prefs, err := storage.OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = prefs.Close() })

	a := newTestApp(t, "http://localhost:9", prefs)
	ctx := context.Background()

	first := a.newChatSession()
	first.SetContext(ctx, api.ChatContext{PositionTitle: "Staff Engineer"})
	require.False(t, first.Context().IsZero())

	// A new session starts clean: the context never outlives its session.
	second := a.newChatSession()
	assert.True(t, second.Context().IsZero())

	// And the durable preference store never holds it.
	_, err = prefs.Get(ctx, storage.KeyChatContext)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
