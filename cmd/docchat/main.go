package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"docchat/internal/app"
	"docchat/internal/chat"
	"docchat/internal/tui"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:     "docchat",
		Short:   "Terminal client for the document chat assistant",
		Long:    "docchat is a terminal client for a document-augmented chat assistant.\n\nRun without arguments for the interactive UI. Inside the UI, /upload attaches\ndocuments to the current session and questions are answered against them.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// The controller publishes from its own goroutines; drop on
			// overflow rather than stall a stream behind a slow UI.
			events := make(chan chat.Event, 256)
			notify := func(ev chat.Event) {
				select {
				case events <- ev:
				default:
				}
			}

			application := app.NewApplication(cfg, notify)
			application.Logger.WithField("version", version).Info("starting ui")
			return tui.Run(application.Controller, cfg.Theme, events)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+app.DefaultConfigPath()+")")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions without starting the UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			application := app.NewApplication(cfg, nil)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sessions, err := application.API.List(ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no sessions")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Title)
			}
			return nil
		},
	}
	root.AddCommand(sessionsCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = app.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := app.SaveConfig(app.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	root.AddCommand(initCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (app.Config, error) {
	if path == "" {
		path = app.DefaultConfigPath()
	}
	return app.LoadConfig(path)
}
