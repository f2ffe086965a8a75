package app

import (
	"context"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"

	"github.com/skyscout/skyscout/internal/config"
	"github.com/skyscout/skyscout/internal/logging"
	"github.com/skyscout/skyscout/internal/prefs"
	"github.com/skyscout/skyscout/internal/skyapi"
	"github.com/skyscout/skyscout/internal/state"
	"github.com/skyscout/skyscout/internal/ui"
)

// Options configure the SkyScout application.
type Options struct {
	ConfigPath string // empty uses ~/.config/skyscout/config.toml
	EnvPath    string // empty uses ./.env when present
	PrefsPath  string // empty uses ~/.config/skyscout/prefs.toml
	Debug      bool
}

// Run boots the SkyScout TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	uiOpts, closer, err := build(ctx, opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	uiOpts.Logger.Info("skyscout starting", "host", uiOpts.Config.APIHost, "prefs", uiOpts.PrefsPath)
	err = ui.Run(uiOpts)
	if err != nil {
		uiOpts.Logger.Error("ui exited", "err", err)
	} else {
		uiOpts.Logger.Info("skyscout stopped")
	}
	return err
}

// build loads configuration and wires every collaborator the UI needs.
// The returned closer releases the log file.
func build(ctx context.Context, opts Options) (ui.Options, io.Closer, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvPath)
	if err != nil {
		return ui.Options{}, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ui.Options{}, nil, err
	}

	logger, closer, err := logging.Open(cfg.LogPath(), opts.Debug)
	if err != nil {
		return ui.Options{}, nil, fmt.Errorf("open log: %w", err)
	}

	client, err := skyapi.NewClient(skyapi.Options{
		APIKey:      cfg.APIKey,
		Host:        cfg.APIHost,
		BaseURL:     cfg.BaseURL,
		Locale:      cfg.Locale,
		Market:      cfg.Market,
		Currency:    cfg.Currency,
		CountryCode: cfg.CountryCode,
		Timeout:     cfg.RequestTimeout,
	})
	if err != nil {
		closer.Close()
		return ui.Options{}, nil, fmt.Errorf("init api client: %w", err)
	}

	clk := clockwork.NewRealClock()
	directory := skyapi.NewDirectory(client, skyapi.DirectoryOptions{
		CacheTTL:    cfg.CacheTTL,
		MinInterval: cfg.RateInterval,
		Clock:       clk,
		Logger:      logger.WithPrefix("airports"),
	})

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return ui.Options{
		Context:   ctx,
		Airports:  directory,
		Flights:   client,
		Store:     state.NewStore(clk),
		Config:    cfg,
		Prefs:     prefs.Load(prefsPath),
		PrefsPath: prefsPath,
		Logger:    logger,
		Clock:     clk,
	}, closer, nil
}
