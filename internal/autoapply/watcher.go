// Package autoapply surfaces long-running browser-automation task status.
//
// The automation itself runs server-side; the client only watches. Status
// arrives preferentially over a WebSocket, with automatic fallback to
// 2-second polling when the socket cannot be established or drops
// mid-task.
package autoapply

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/log"
)

// PollInterval is the status poll cadence when the WebSocket is
// unavailable.
const PollInterval = 2 * time.Second

// Backend is the subset of the API client the watcher depends on.
type Backend interface {
	GetTaskStatus(ctx context.Context, taskID string) (*api.TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	TaskSocketURL(taskID string) string
	Token() string
}

// Watcher streams status updates for auto-apply tasks.
type Watcher struct {
	backend Backend
	logger  log.Logger

	// dial is swappable in tests.
	dial func(ctx context.Context, url string, header http.Header) (*websocket.Conn, error)
}

// NewWatcher creates a task watcher.
func NewWatcher(backend Backend, logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Watcher{
		backend: backend,
		logger:  logger,
		dial: func(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
			return conn, err
		},
	}
}

// Watch yields status snapshots for taskID until a terminal state,
// context cancellation, or an unrecoverable polling error.
//
// The WebSocket path is best effort: a dial failure or a dropped
// connection switches to polling without surfacing an error to the
// caller.
func (w *Watcher) Watch(ctx context.Context, taskID string) iter.Seq2[api.TaskStatus, error] {
	return func(yield func(api.TaskStatus, error) bool) {
		if done := w.watchSocket(ctx, taskID, yield); done {
			return
		}
		if ctx.Err() != nil {
			return
		}
		w.logger.Info("falling back to status polling", "task_id", taskID, "interval", PollInterval)
		w.poll(ctx, taskID, yield)
	}
}

// Cancel aborts a running task.
func (w *Watcher) Cancel(ctx context.Context, taskID string) error {
	return w.backend.CancelTask(ctx, taskID)
}

// watchSocket consumes the WebSocket stream. Returns true when watching
// finished (terminal status or consumer stop) and false when the caller
// should fall back to polling.
func (w *Watcher) watchSocket(ctx context.Context, taskID string, yield func(api.TaskStatus, error) bool) bool {
	header := http.Header{}
	if token := w.backend.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, err := w.dial(ctx, w.backend.TaskSocketURL(taskID), header)
	if err != nil {
		w.logger.Debug("task socket dial failed", "task_id", taskID, "error", err)
		return false
	}
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			w.logger.Debug("task socket read failed", "task_id", taskID, "error", err)
			return false
		}

		var status api.TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			w.logger.Debug("skipping malformed status frame", "task_id", taskID, "error", err)
			continue
		}

		if !yield(status, nil) {
			return true
		}
		if status.Terminal() {
			return true
		}
	}
}

// poll fetches status on a fixed interval until a terminal state.
// A fetch error ends the sequence; the task keeps running server-side
// and a fresh Watch can resume observation.
func (w *Watcher) poll(ctx context.Context, taskID string, yield func(api.TaskStatus, error) bool) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		status, err := w.backend.GetTaskStatus(ctx, taskID)
		if err != nil {
			yield(api.TaskStatus{}, err)
			return
		}
		if !yield(*status, nil) {
			return
		}
		if status.Terminal() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
