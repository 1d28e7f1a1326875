package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/dp-desktop/client/internal/config"
	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/nav"
	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/simulator"
	"github.com/dp-desktop/client/internal/storage"
	"github.com/dp-desktop/client/internal/task"
	"github.com/dp-desktop/client/internal/tui"
	"github.com/dp-desktop/client/internal/viewmodel"
)

var logger = logging.For("main")

func buildApp() *cli.App {
	return &cli.App{
		Name:    "dpdesktop",
		Usage:   "desktop client for the data platform",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the XML configuration file",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "base URL used for every data platform service",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, error or off",
			},
		},
		Action: runGUI,
		Commands: []*cli.Command{
			{
				Name:   "gui",
				Usage:  "start the terminal client",
				Action: runGUI,
			},
			{
				Name:  "simulate",
				Usage: "run an in-memory data platform for development",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "listen port (overrides the configuration)"},
					&cli.DurationFlag{Name: "interval", Usage: "emit random values for subscribed PVs at this interval"},
				},
				Action: runSimulator,
			},
			{
				Name:  "config",
				Usage: "manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write the default configuration and presets",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "force", Usage: "overwrite existing files"},
						},
						Action: runConfigInit,
					},
				},
			},
		},
	}
}

// configPath resolves --config, defaulting to the file next to the executable.
func configPath(ctx *cli.Context) (string, error) {
	if p := ctx.String("config"); p != "" {
		return filepath.Abs(p)
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), config.FileName), nil
}

func loadConfig(ctx *cli.Context) (*config.AppConfig, error) {
	path, err := configPath(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if endpoint := ctx.String("endpoint"); endpoint != "" {
		cfg.SetEndpoint(endpoint)
	}
	if level := ctx.String("log-level"); level != "" {
		cfg.Advanced.LogLevel = level
	}
	return cfg, nil
}

func runGUI(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	// The terminal owns stdout, so logs go to the file.
	logFile, err := logging.OpenFile(cfg.Advanced.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if err := logging.Configure(cfg.Advanced.LogLevel, logFile); err != nil {
		return err
	}

	presets, err := config.LoadPresets(cfg.Advanced.PresetsFile)
	if err != nil {
		logger.Warnf("[Main] failed to load presets, using defaults: %v", err)
		presets = config.DefaultPresets()
	}

	endpoints := rpc.Endpoints{
		Ingestion:       cfg.Services.Ingestion,
		Query:           cfg.Services.Query,
		Annotation:      cfg.Services.Annotation,
		IngestionStream: cfg.Services.IngestionStream,
	}
	client := rpc.NewHTTPClient(endpoints, rpc.WithTimeout(cfg.RequestTimeout()))

	runCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	ui := tui.NewDispatcher()
	now := time.Now().Truncate(time.Second)
	app := session.New(client, ui,
		session.WithEndpoints(endpoints),
		session.WithTimeWindow(now.Add(-cfg.DefaultWindow()), now))
	ctrl := nav.New(viewmodel.Env{
		App:     app,
		Runner:  task.NewRunner(runCtx, ui),
		Presets: presets,
	})
	logger.Infof("[Main] starting client %s against %s", Version, endpoints.Query)

	program := tea.NewProgram(tui.NewModel(app, ctrl, ui), tea.WithAltScreen())
	_, runErr := program.Run()

	cancel()
	ctrl.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer stop()
	if err := app.Close(shutdownCtx); err != nil {
		logger.Warnf("[Main] shutdown: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("terminal exited with error: %w", runErr)
	}
	return nil
}

func runSimulator(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := logging.Configure(cfg.Advanced.LogLevel, os.Stderr); err != nil {
		return err
	}
	if port := ctx.Int("port"); port > 0 {
		cfg.Simulator.Port = port
	}
	interval := cfg.EventInterval()
	if ctx.IsSet("interval") {
		interval = ctx.Duration("interval")
	}

	srv := simulator.New(simulator.Dependencies{
		Store:          storage.NewMemoryStore(),
		Version:        Version,
		BodyLimit:      cfg.Simulator.BodyLimit,
		RequestLogging: cfg.Simulator.EnableRequestLogging,
		EventInterval:  interval,
	})

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(sigCtx, cfg.GetSimulatorAddr(), cfg.ShutdownTimeout())
}

func runConfigInit(ctx *cli.Context) error {
	path, err := configPath(ctx)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !ctx.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}
	presetsPath := filepath.Join(filepath.Dir(path), filepath.Base(cfg.Advanced.PresetsFile))
	if err := config.DefaultPresets().Save(presetsPath); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Wrote %s and %s\n", path, presetsPath)
	return nil
}
