package cmd

import (
	"fmt"
	"os"

	"github.com/panacea-app/panacea-cli/internal/api"
	"github.com/panacea-app/panacea-cli/internal/chat"
	"github.com/panacea-app/panacea-cli/internal/config"
	"github.com/panacea-app/panacea-cli/internal/log"
	"github.com/panacea-app/panacea-cli/internal/storage"
)

// app holds the wired dependencies shared by commands.
type app struct {
	cfg    *config.Config
	logger log.Logger
	client *api.Client
	prefs  storage.Store // durable preferences (theme, panel state)
}

// bootstrap loads configuration and wires the logger, API client and
// durable preference store. Every command goes through here so they all
// behave identically on bad config or a missing token.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: cfg.SlogLevel(),
		JSON:  cfg.LogJSON,
	})

	client, err := api.New(api.Config{
		BaseURL: cfg.BaseURL(),
		Token:   cfg.APIToken,
		DevMode: cfg.DevMode,
		OnUnauthorized: func() {
			fmt.Fprintln(os.Stderr, "Session expired or token invalid.")
			fmt.Fprintln(os.Stderr, "Set PANACEA_API_TOKEN and try again.")
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	var prefs storage.Store
	prefs, err = storage.OpenSQLite(cfg.DataDir)
	if err != nil {
		// Durable preferences are a convenience; chat still works
		// without them.
		logger.Warn("falling back to in-memory preferences", "error", err)
		prefs = storage.NewMemory()
	}

	return &app{cfg: cfg, logger: logger, client: client, prefs: prefs}, nil
}

// newChatSession wires a chat session with a fresh in-memory context
// store. ChatContext is scoped to one run, the analogue of per-tab
// session storage; the durable prefs store never holds it.
func (a *app) newChatSession() *chat.Session {
	return chat.NewSession(a.client, storage.NewMemory(), a.logger)
}

// close releases the app's resources.
func (a *app) close() {
	if err := a.prefs.Close(); err != nil {
		a.logger.Warn("closing preference store", "error", err)
	}
}
