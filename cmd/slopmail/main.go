package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slopmail/slopmail/internal/app"
	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/backend/local"
	"github.com/slopmail/slopmail/internal/backend/memory"
	"github.com/slopmail/slopmail/internal/config"
	"github.com/slopmail/slopmail/internal/logging"
)

var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "Path to config file")
		demo        = flag.Bool("demo", false, "Run with in-memory sample data")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("slopmail version %s\n", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "slopmail: loading config: %v\n", err)
		os.Exit(1)
	}
	if *demo {
		cfg.Demo = true
	}

	// The TUI owns stdout, so logs go to a file.
	logger, logCloser, err := logging.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "slopmail: setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	var client backend.Client
	if cfg.Demo {
		logger.Info("starting with in-memory demo backend")
		client = memory.NewDemoClient()
	} else {
		store, err := local.NewStore(cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "slopmail: opening mail cache: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		client = local.NewClient(store, logger)
	}

	logger.WithField("version", version).Info("starting slopmail")

	m := app.New(client, logger, cfg.Display.PageSize)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.WithError(err).Error("program exited with error")
		fmt.Fprintf(os.Stderr, "slopmail: %v\n", err)
		os.Exit(1)
	}
}
