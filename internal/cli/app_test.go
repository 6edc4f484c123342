package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classline/classline/internal/config"
	"github.com/classline/classline/internal/models"
	"github.com/classline/classline/internal/msgsync"
)

func newCachedApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = "http://localhost:1"
	cfg.Cache.Path = filepath.Join(t.TempDir(), "classline.db")

	app, err := NewApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Cache)
	t.Cleanup(app.Close)
	return app
}

func TestSeedThreadLoadsCachedWindow(t *testing.T) {
	app := newCachedApp(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cached := []models.Message{
		{ID: "conv-a-msg-000", ConversationID: "conv-a", SenderID: "teacher-1",
			Content: "snapshot one", CreatedAt: base, IsRead: true},
		{ID: "conv-a-msg-001", ConversationID: "conv-a", SenderID: "parent-1",
			Content: "snapshot two", CreatedAt: base.Add(time.Minute), IsRead: true},
	}
	require.NoError(t, app.Cache.SaveMessages(ctx, "conv-a", cached))

	require.True(t, app.SeedThread(ctx, "conv-a"))

	require.Equal(t, "conv-a", app.Thread.ConversationID())
	require.Equal(t, msgsync.PhaseReady, app.Thread.Phase())
	window := app.Thread.Window()
	require.Len(t, window, 2)
	require.Equal(t, "snapshot one", window[0].Content)
	require.Equal(t, "snapshot two", window[1].Content)
}

func TestSeedThreadSkipsEmptyCache(t *testing.T) {
	app := newCachedApp(t)

	require.False(t, app.SeedThread(context.Background(), "conv-missing"))
	require.Empty(t, app.Thread.ConversationID())
	require.Equal(t, msgsync.PhaseEmpty, app.Thread.Phase())
}
