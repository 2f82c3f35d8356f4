// Package app wires configuration, logging, the backend API client, and the
// chat session controller into one application object the CLI and TUI share.
package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"docchat/internal/api"
	"docchat/internal/chat"
)

type Application struct {
	Config     Config
	Logger     *logrus.Logger
	API        *api.Client
	Controller *chat.Controller
}

// NewApplication builds the full stack. notify receives controller events
// and may be nil for non-interactive use.
func NewApplication(cfg Config, notify func(chat.Event)) *Application {
	logger := NewLogger(cfg.LogLevel)
	logger.AddHook(newScrubHook(cfg.Token))
	client := api.New(
		cfg.BaseURL,
		cfg.Token,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
		logger.WithField("component", "api"),
	)
	controller := chat.New(client, client, client, logger.WithField("component", "controller"), notify)

	return &Application{
		Config:     cfg,
		Logger:     logger,
		API:        client,
		Controller: controller,
	}
}
