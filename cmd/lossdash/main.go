package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"lossdash/internal/capture"
	"lossdash/internal/config"
	appLog "lossdash/internal/log"
	"lossdash/internal/store"
	"lossdash/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	dataFile   string
	snapshot   bool
}

func main() {
	appLog.Info("lossdash starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataFile != "" {
		conf.DataFile = flags.dataFile
	}

	appLog.SetLevelFromString(conf.LogLevel)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_file", conf.DataFile,
		"year", conf.Year,
		"timezone", conf.Timezone,
		"snapshot_cron", conf.Snapshot.Cron,
	)

	loc := resolveLocationOrLocal(conf.Timezone)

	st := store.New(conf.DataFile, conf.Year, loc)
	if err := st.Load(); err != nil {
		appLog.Error("failed to load event log", err, "path", conf.DataFile)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- web.StartServer(ctx, conf, st, loc)
	}()

	if flags.snapshot {
		// One-shot snapshot: give the server a moment to bind, capture, exit.
		time.Sleep(500 * time.Millisecond)
		if err := runSnapshot(ctx, conf); err != nil {
			appLog.Error("snapshot failed", err)
			os.Exit(1)
		}
		appLog.Info("snapshot written", "path", conf.Snapshot.OutputPath)
		return
	}

	// Periodic snapshot capture, if scheduled.
	var scheduler *cron.Cron
	if conf.Snapshot.Cron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(conf.Snapshot.Cron, func() {
			if err := runSnapshot(ctx, conf); err != nil {
				appLog.Error("scheduled snapshot failed", err)
				return
			}
			appLog.Info("scheduled snapshot written", "path", conf.Snapshot.OutputPath)
		})
		if err != nil {
			appLog.Error("invalid snapshot cron expression", err, "cron", conf.Snapshot.Cron)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	select {
	case err := <-serverErr:
		if err != nil {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	appLog.Info("lossdash exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "lossdash.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataFile, "data", "", "Event workbook path (overrides config if set)")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture one dashboard PNG and exit")

	flag.Parse()

	return cfg
}

func runSnapshot(ctx context.Context, conf *config.Config) error {
	return capture.DashboardPNG(ctx, capture.Options{
		URL:        fmt.Sprintf("http://%s/?view=%s", conf.Listen, conf.Snapshot.View),
		OutputPath: conf.Snapshot.OutputPath,
	})
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
