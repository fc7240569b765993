package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/smolnikov/tripsync/internal/client/config"
	"github.com/smolnikov/tripsync/internal/client/models"
	"github.com/smolnikov/tripsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExpense() models.Expense {
	return models.Expense{Item: "lunch", Amount: 100, Currency: "TWD", Payer: "ann"}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "trip.db")

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	app, err := NewApp(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.refresh.Stop()
		app.db.Close()
	})
	return app
}

func TestNewApp_StartsOffline(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, ModeOffline, app.Mode())
	assert.False(t, app.service.Online())
}

func TestSetMode_FlipsServiceOnlineFlag(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	app.setMode(ctx, ModeOnline)
	assert.Equal(t, ModeOnline, app.Mode())
	assert.True(t, app.service.Online())

	app.setMode(ctx, ModeOffline)
	assert.Equal(t, ModeOffline, app.Mode())
	assert.False(t, app.service.Online())
}

func TestGetStatus_ShowsModeAndPendingCount(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	assert.Equal(t, "(offline)", app.getStatus())

	_, err := app.service.AddExpense(ctx, testExpense())
	require.NoError(t, err)
	assert.Equal(t, "(offline, 1 pending)", app.getStatus())
}

func TestRecomputeStats_PopulatesCache(t *testing.T) {
	app := newTestApp(t)
	app.recomputeStats()

	app.stats.mu.Lock()
	defer app.stats.mu.Unlock()
	assert.True(t, app.stats.ready)

	// empty dataset yields empty figures, not a crash
	assert.Empty(t, app.stats.totals)
	assert.Empty(t, app.stats.plan)
}

func TestDebouncedRefresh_RunsAfterMutation(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	// a local mutation notifies subscribers, which schedules a refresh
	_, err := app.service.AddExpense(ctx, testExpense())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		app.stats.mu.Lock()
		defer app.stats.mu.Unlock()
		return app.stats.ready && len(app.stats.totals) == 1
	}, 2*time.Second, 20*time.Millisecond)
}
