package cli

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/config"
	"github.com/dmitrijs2005/cpdvault/internal/client/kvstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/localstore"
	"github.com/dmitrijs2005/cpdvault/internal/client/remote"
	"github.com/dmitrijs2005/cpdvault/internal/client/services"
	"github.com/dmitrijs2005/cpdvault/internal/client/transcribe"
	"github.com/dmitrijs2005/cpdvault/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config       *config.Config
	log          logging.Logger
	authService  services.AuthService
	entryService services.EntryService
	remote       remote.Client
	syncer       *services.Syncer
	transcriber  transcribe.Transcriber
	Mode         Mode
	reader       *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, err := kvstore.OpenDatabase(ctx, c.LocalDBPath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	kv := kvstore.NewSQLiteStore(db)
	local := localstore.NewEntryStore(kv, logger)

	apiClient := remote.NewHTTPClient(c.ServerEndpointAddr)

	as := services.NewAuthService(apiClient, kv)
	es := services.NewEntryService(apiClient, local, logger)

	return &App{
		config:       c,
		log:          logger,
		authService:  as,
		entryService: es,
		remote:       apiClient,
		syncer:       services.NewSyncer(es, apiClient, logger),
		Mode:         ModeOffline,
		reader:       bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	go a.syncer.Run(ctx, a.config.SyncInterval)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.remote.HasSession()
}

// StartOnlineStatusWatcher probes server reachability on a timer and flips
// the connectivity Mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.authService.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
