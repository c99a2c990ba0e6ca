// Package main is the entry point for wellgate, the wellness platform
// gateway. It fronts the backend API and the auth provider behind stable
// proxy routes and serves the organization and check-in API locally.
package main

import (
	"flag"
	"fmt"
	"os"

	wghttp "github.com/wellgate/wellgate/adapters/http"
	"github.com/wellgate/wellgate/bootstrap"
	"github.com/wellgate/wellgate/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "wellgate.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	hotReload := flag.Bool("hot-reload", true, "Enable hot reload of configuration")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wellgate %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *validate {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration valid\n")
		fmt.Printf("  Listen: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("  Backend: %s\n", orUnset(cfg.Backend.URL))
		fmt.Printf("  Auth provider: %s\n", orUnset(cfg.AuthProvider.URL))
		fmt.Printf("  Database: %s\n", cfg.Database.DSN)
		os.Exit(0)
	}

	wghttp.Version = version

	var app *bootstrap.App
	var err error

	if *hotReload && fileExists(*configPath) {
		app, err = bootstrap.NewWithHotReload(*configPath)
	} else {
		cfg, loadErr := config.LoadWithFallback(*configPath)
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", loadErr)
			os.Exit(1)
		}
		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}

	// Run blocks until shutdown
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not configured)"
	}
	return s
}
