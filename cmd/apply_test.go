package cmd

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-app/panacea-cli/internal/testutil"
)

func TestApplyWatch_PrintsStatusUntilTerminal(t *testing.T) {
	t.Parallel()

	srv := testutil.Server(t, map[string]http.HandlerFunc{
		// No WebSocket endpoint here; the failed handshake drops the
		// watcher into its polling path.
		"GET /auto-apply/ws/t1": testutil.JSONHandler(http.StatusNotFound,
			`{"detail":"no socket"}`),
		"GET /auto-apply/tasks/t1": testutil.JSONHandler(http.StatusOK,
			`{"task_id":"t1","status":"done","step":"submitted","message":"Application submitted"}`),
	})

	a := newTestApp(t, srv.URL, nil)
	var out bytes.Buffer

	err := applyWatch(context.Background(), a, &out, "t1")
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "done")
	assert.Contains(t, got, "submitted")
	assert.Contains(t, got, "Application submitted")
}

func TestApplyWatch_PollErrorSurfaces(t *testing.T) {
	t.Parallel()

	srv := testutil.Server(t, map[string]http.HandlerFunc{
		"GET /auto-apply/ws/t2": testutil.JSONHandler(http.StatusNotFound,
			`{"detail":"no socket"}`),
		"GET /auto-apply/tasks/t2": testutil.JSONHandler(http.StatusInternalServerError,
			`{"detail":"boom"}`),
	})

	a := newTestApp(t, srv.URL, nil)
	var out bytes.Buffer

	err := applyWatch(context.Background(), a, &out, "t2")
	require.Error(t, err)
	assert.Empty(t, out.String())
}
