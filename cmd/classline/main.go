// Package main is the entry point for the classline client.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/classline/classline/internal/cli"
	"github.com/classline/classline/internal/config"
	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/msgsync"
	"github.com/classline/classline/internal/tui"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	// Default entrypoint: launch the TUI when invoked with no args.
	if len(os.Args) == 1 {
		if err := runTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI() error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	app, err := cli.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.SeedFromCache(context.Background())

	var snapshot msgsync.Snapshotter
	if app.Cache != nil {
		snapshot = app.Cache
	}
	scheduler := msgsync.NewScheduler(msgsync.SchedulerConfig{
		ListInterval:   cfg.Sync.ListInterval,
		ThreadInterval: cfg.Sync.ThreadInterval,
	}, app.List, app.Thread, snapshot)

	tuiCfg := tui.Config{
		List:      app.List,
		Thread:    app.Thread,
		Send:      app.Send,
		Scheduler: scheduler,
		SelfID:    cfg.API.UserID,
	}
	if app.Cache != nil {
		tuiCfg.Cache = app.Cache
	}
	return tui.Run(tuiCfg)
}
