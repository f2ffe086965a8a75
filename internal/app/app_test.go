package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skyscout/skyscout/internal/config"
	"github.com/skyscout/skyscout/internal/skyapi"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun_MissingAPIKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvAPIKey, "")
	chdir(t, dir)

	err := Run(context.Background(), Options{ConfigPath: writeConfig(t, dir, "")})
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("Run error = %v, want ErrMissingAPIKey", err)
	}
}

func TestRun_BadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	chdir(t, dir)

	err := Run(context.Background(), Options{ConfigPath: writeConfig(t, dir, "suggest_delay_ms = -1\n")})
	if err == nil {
		t.Fatalf("expected error for negative delay")
	}
}

func TestBuild_WiresCollaborators(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvAPIKey, "")
	chdir(t, dir)

	body := "api_key = \"k\"\nlog_dir = \"" + filepath.Join(dir, "logs") + "\"\n"
	prefsPath := filepath.Join(dir, "prefs.toml")
	if err := os.WriteFile(prefsPath, []byte("theme = \"Slate\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opts, closer, err := build(context.Background(), Options{
		ConfigPath: writeConfig(t, dir, body),
		PrefsPath:  prefsPath,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { closer.Close() })

	if _, ok := opts.Airports.(*skyapi.Directory); !ok {
		t.Fatalf("Airports = %T, want *skyapi.Directory", opts.Airports)
	}
	if _, ok := opts.Flights.(*skyapi.Client); !ok {
		t.Fatalf("Flights = %T, want *skyapi.Client", opts.Flights)
	}
	if opts.Prefs.Theme != "Slate" {
		t.Fatalf("Prefs.Theme = %q, want Slate", opts.Prefs.Theme)
	}
	if opts.Store == nil || opts.Logger == nil || opts.Clock == nil {
		t.Fatalf("missing collaborators: %+v", opts)
	}

	opts.Logger.Info("wired")
	if _, err := os.Stat(filepath.Join(dir, "logs", "skyscout.log")); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}
