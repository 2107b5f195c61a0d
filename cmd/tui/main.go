package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/tui"
	"forumhub/internal/tui/config"
	"forumhub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the TUI config file")
	backend := flag.String("backend", "", "override the backend: remote, memory or redis")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		fmt.Println("Using default configuration...")
		cfg = config.Default()
	}
	if *backend != "" {
		cfg.Backend.Kind = *backend
		if err := cfg.Validate(); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
	}

	// The screen owns stdout; logs go to a file or nowhere
	logger.Init(logger.Config{Level: "info", Output: cfg.UI.LogFile})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	b, err := tui.OpenBackend(ctx, cfg)
	cancel()
	if err != nil {
		fmt.Printf("Error opening %s backend: %v\n", cfg.Backend.Kind, err)
		os.Exit(1)
	}
	defer b.Close()

	sender := &tui.ProgramSender{}
	app := tui.New(cfg, b, sender)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(app, opts...)
	sender.Attach(p)

	_, runErr := p.Run()
	app.Shutdown()
	if runErr != nil {
		fmt.Printf("Error running TUI: %v\n", runErr)
		os.Exit(1)
	}
}
