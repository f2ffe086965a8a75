package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/skyscout/skyscout/internal/app"
	"github.com/skyscout/skyscout/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("skyscout", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "config file path (default ~/.config/skyscout/config.toml)")
	envPath := fs.String("env", "", "dotenv file with SKYSCOUT_API_KEY (default ./.env when present)")
	prefsPath := fs.String("prefs", "", "preferences file path (default ~/.config/skyscout/prefs.toml)")
	debug := fs.BoolP("debug", "d", false, "write debug entries to the log")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		EnvPath:    *envPath,
		PrefsPath:  *prefsPath,
		Debug:      *debug,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "skyscout: %v\n", err)
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "get a key at https://rapidapi.com/apiheya/api/sky-scrapper and put it in the config file or .env")
		}
		return 1
	}
	return 0
}
