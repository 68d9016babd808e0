package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me-cbr/por-onde-andei/internal/activity"
	"github.com/me-cbr/por-onde-andei/internal/app"
	"github.com/me-cbr/por-onde-andei/internal/config"
	"github.com/me-cbr/por-onde-andei/internal/geo"
	"github.com/me-cbr/por-onde-andei/internal/log"
	"github.com/me-cbr/por-onde-andei/internal/storage"
)

// Test seams. Tests swap these to inject fixtures without touching the
// real config file or database locations.
var (
	loadConfigFn = config.Load
	openStoreFn  = storage.Open
)

type globalOptions struct {
	ConfigPath string
	DBPath     string
	JSON       bool
}

type commandDeps struct {
	out     io.Writer
	build   BuildInfo
	globals *globalOptions
}

// runtime holds the composed application for one command invocation.
// Services receive their collaborators here and nowhere else.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.Store
	auth     *app.AuthService
	places   *app.PlaceService
	maps     *geo.Client
	activity *activity.Service
}

func withRuntime(cmd *cobra.Command, deps commandDeps, fn func(context.Context, *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loadOpts := config.LoadOptions{}
	if deps.globals != nil {
		if configPath := strings.TrimSpace(deps.globals.ConfigPath); configPath != "" {
			loadOpts.ConfigPath = configPath
		}
		if dbPath := strings.TrimSpace(deps.globals.DBPath); dbPath != "" {
			loadOpts.Env = map[string]string{"ANDEI_DB_PATH": dbPath}
		}
	}

	cfg, err := loadConfigFn(loadOpts)
	if err != nil {
		return mapCommandError(err)
	}

	logger, logCloser, err := log.New(log.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		return mapCommandError(err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	store, err := openStoreFn(cfg.Database.Path, storage.Options{
		AllowRebuild: cfg.Database.AllowRebuild,
		Logger:       logger,
	})
	if err != nil {
		return mapCommandError(err)
	}
	defer store.Close()

	maps := geo.NewClient(geo.Config{
		APIKey:       cfg.Maps.APIKey,
		Language:     cfg.Maps.Language,
		Region:       cfg.Maps.Region,
		Timeout:      cfg.Maps.Timeout,
		CacheTTL:     cfg.Maps.CacheTTL,
		CacheMaxSize: cfg.Maps.CacheMaxSize,
	})

	history, err := activity.NewService(store.Activity)
	if err != nil {
		return mapCommandError(err)
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		auth:     app.NewAuthService(store.Accounts, store.Sessions),
		places:   app.NewPlaceService(store.Places, maps, logger),
		maps:     maps,
		activity: history,
	}
	return mapCommandError(fn(ctx, rt))
}

// note appends to the activity history without failing the command
// that triggered it.
func (rt *runtime) note(ctx context.Context, event activity.Event) {
	if err := rt.activity.Record(ctx, event); err != nil {
		rt.logger.Warn("activity record failed", "action", event.Action, "error", err.Error())
	}
}

// requireAccount resolves the effective session or fails the command.
func (rt *runtime) requireAccount(ctx context.Context) (*storage.Account, error) {
	return rt.auth.RequireCurrent(ctx)
}

func printJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
