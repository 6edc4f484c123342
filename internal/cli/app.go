package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/classline/classline/internal/api"
	"github.com/classline/classline/internal/cache"
	"github.com/classline/classline/internal/config"
	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/msgsync"
)

// App bundles the wired sync engine for one command invocation.
type App struct {
	Config *config.Config
	API    *api.Client
	List   *msgsync.ConversationListStore
	Reader *msgsync.ReadStateTracker
	Thread *msgsync.ActiveThreadStore
	Send   *msgsync.SendPipeline
	Cache  *cache.Store

	logger zerolog.Logger
}

// newApp loads config and wires the API client, stores and cache.
func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return NewApp(cfg)
}

// NewApp wires the API client, sync stores and snapshot cache from an
// already loaded configuration.
func NewApp(cfg *config.Config) (*App, error) {
	client, err := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		API:    client,
		logger: logging.Component("cli"),
	}
	app.List = msgsync.NewConversationListStore(client, cfg.Sync.PageSize)
	app.Reader = msgsync.NewReadStateTracker(client, app.List)
	app.Thread = msgsync.NewActiveThreadStore(client, cfg.Sync.PageSize, app.Reader, app.List)
	app.Send = msgsync.NewSendPipeline(client, app.Thread, app.List)

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			// The cache is an optimization; a broken cache file must not
			// keep the client from talking to the live API.
			app.logger.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("snapshot cache unavailable")
		} else {
			app.Cache = store
		}
	}
	return app, nil
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close snapshot cache")
		}
	}
}

// SeedFromCache loads the cached conversation list so the UI has
// something to show before the first live page lands. Live data
// replaces it wholesale on the next load.
func (a *App) SeedFromCache(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	items, err := a.Cache.LoadConversations(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to read cached conversations")
		return
	}
	if len(items) > 0 {
		a.List.ReplaceAll(items)
	}
}

// SeedThread pre-populates the thread store with the cached window for
// one conversation, so there is something to render before the live
// fetch lands (or when it fails). A successful select replaces the
// seeded window wholesale.
func (a *App) SeedThread(ctx context.Context, conversationID string) bool {
	if a.Cache == nil {
		return false
	}
	messages, err := a.Cache.LoadMessages(ctx, conversationID)
	if err != nil {
		a.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to read cached thread")
		return false
	}
	if len(messages) == 0 {
		return false
	}
	a.Thread.Seed(conversationID, messages)
	return true
}

// snapshotList persists the current conversation list, best effort.
func (a *App) snapshotList(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.SaveConversations(ctx, a.List.Conversations()); err != nil {
		a.logger.Warn().Err(err).Msg("failed to snapshot conversations")
	}
}

// snapshotThread persists the open thread window, best effort.
func (a *App) snapshotThread(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	id := a.Thread.ConversationID()
	if id == "" {
		return
	}
	if err := a.Cache.SaveMessages(ctx, id, a.Thread.Window()); err != nil {
		a.logger.Warn().Err(err).Str("conversation_id", id).Msg("failed to snapshot thread")
	}
}
