package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"
	"sync"
	"time"

	"github.com/smolnikov/tripsync/internal/client/client"
	"github.com/smolnikov/tripsync/internal/client/config"
	"github.com/smolnikov/tripsync/internal/client/gateway"
	"github.com/smolnikov/tripsync/internal/client/services"
	"github.com/smolnikov/tripsync/internal/logging"
	"github.com/smolnikov/tripsync/internal/netx"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	service *services.TripService
	gw      gateway.Client
	db      *sql.DB
	log     logging.Logger
	reader  *bufio.Reader

	modeMu sync.Mutex
	mode   Mode

	refresh *Debouncer
	stats   statsCache
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, repos, err := client.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	gw := gateway.New(cfg.GatewayEndpoint, cfg.HTTPRetryMax, log)
	svc := services.NewTripService(repos.State, repos.Assets, gw, netx.DownloadAsset, log)

	a := &App{
		config:  cfg,
		service: svc,
		gw:      gw,
		db:      db,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		mode:    ModeOffline,
	}
	// Bursts of snapshot replacements (queue drain, full reload) coalesce
	// into one stats refresh.
	a.refresh = NewDebouncer(300*time.Millisecond, func() { a.recomputeStats() })
	svc.Subscribe(a.refresh.Trigger)
	return a, nil
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	if a.mode == mode {
		a.modeMu.Unlock()
		return
	}
	a.mode = mode
	a.modeMu.Unlock()

	a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	online := mode == ModeOnline
	a.service.SetOnline(online)
	if online {
		// coming back online replays whatever queued up while away; with
		// nothing queued a plain reload brings the snapshot up to date
		go func() {
			ctx := context.Background()
			hadPending := len(a.service.Queue()) > 0
			if err := a.service.DrainOnce(ctx); err != nil {
				a.log.Warn(ctx, "drain failed", "err", err)
			}
			if !hadPending {
				if err := a.service.Load(ctx); err != nil {
					a.log.Warn(ctx, "reload failed", "err", err)
				}
			}
		}()
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	defer a.refresh.Stop()

	if err := a.service.Load(ctx); err != nil {
		a.log.Warn(ctx, "initial load failed", "err", err)
	}
	a.Root(ctx)
}

// StartOnlineStatusWatcher probes the gateway on a fixed interval and flips
// the app mode on transitions. The first successful probe after a stretch of
// failures triggers a queue drain via setMode.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.gw.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
