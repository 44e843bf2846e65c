// Package main is the entry point for the Crawler Dashboard TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/config"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/services"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/tabs/accounts"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/tabs/keywords"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/tabs/records"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/tabs/statistics"
	"github.com/j-veylop/crawler-dashboard-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Log to a file; the terminal belongs to the TUI
	logCloser, err := logger.Setup(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logCloser.Close()

	// 3. Initialize the service manager
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Create the root model and its tabs
	model := app.NewModel(svcManager)
	model.SetContext(ctx)

	state := model.GetState()
	commands := model.GetCommands()
	model.SetTabs([]app.Tab{
		dashboard.New(state, commands),
		records.New(state, commands),
		accounts.New(state, commands),
		statistics.New(state, commands),
		keywords.New(state, commands),
		info.New(state, cfg),
	})

	// 5. Create the program; confirmations are answered in its modal
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	prompter := app.NewPrompter()
	prompter.Attach(p.Send)
	svcManager.Actions().SetPrompter(prompter)

	// 6. Start polling once the program can receive events
	if err := svcManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			p.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	// 7. Run the TUI program until the user quits
	_, err = p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Crawler Dashboard TUI - terminal client for the crawler control service

Usage:
  cdt [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-6             Switch tabs (Dashboard, Records, Accounts, Statistics, Keywords, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  r               Refresh now
  a, e            Start/stop automation, export data (Dashboard)
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CRAWLER_API_URL   Crawler service base URL (default: http://localhost:8001/api)
  POLL_INTERVAL     Poll interval (default: 30s, reloaded on change)
  ALERT_THRESHOLD   Keyword alert threshold (default: 5, reloaded on change)
  DESKTOP_NOTIFY    Desktop notifications (default: true, reloaded on change)
  REQUEST_TIMEOUT   Per-request timeout (default: 15s)
  DATABASE_PATH     SQLite history database path
  EXPORT_DIR        Directory for CSV exports
  LOG_LEVEL         debug, info, warn or error (default: info)
  LOG_PATH          Log file path

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/crawler-dashboard/.env
  - ~/.crawler-dashboard/.env`)
}
