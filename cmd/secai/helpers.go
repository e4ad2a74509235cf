package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"secai/internal/cache"
	"secai/internal/chunker"
	"secai/internal/config"
	"secai/internal/edgar"
	"secai/internal/loader"
	"secai/internal/logging"
	"secai/internal/service"
	"secai/internal/summarizer"
)

type app struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	edgar   *edgar.Client
	service *service.RAGService
	closers []io.Closer
}

// newApp wires every component from the config. When logToFile is set and
// no log file is configured, logs go to the user cache dir so they do not
// draw over the terminal UI.
func newApp(logToFile bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	if logToFile && logCfg.File == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		logCfg.File = filepath.Join(dir, "secai", "secai.log")
	}
	logger, logCloser, err := logging.New(logCfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	closers := []io.Closer{logCloser}
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	if cc, ok := c.(io.Closer); ok {
		closers = append(closers, cc)
	}
	client := edgar.NewClient(edgarConfig(cfg), c, logger)

	ch, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	sum, err := summarizer.New(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	svc := service.NewRAGService(loader.New(client), ch, sum, service.ComponentsFromConfig(cfg), service.OptionsFromConfig(cfg), logger)

	return &app{cfg: cfg, logger: logger, edgar: client, service: svc, closers: closers}, nil
}

// Close releases resources in reverse order so the log sink goes last.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// apiKey prefers the --api-key flag over the configured environment variable.
func (a *app) apiKey() string {
	if apiKey != "" {
		return apiKey
	}
	return a.cfg.APIKey()
}

func loadConfig() (*config.AppConfig, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func edgarConfig(cfg *config.AppConfig) edgar.Config {
	secs := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return edgar.Config{
		UserAgent:      cfg.Edgar.UserAgent,
		SearchURL:      cfg.Edgar.SearchURL,
		SubmissionsURL: cfg.Edgar.SubmissionsURL,
		ArchivesURL:    cfg.Edgar.ArchivesURL,
		Forms:          cfg.Edgar.Forms,
		MinQueryLength: cfg.Session.MinQueryLength,
		RateLimit:      rate.Limit(cfg.Edgar.RequestsPerSecond),
		Timeout:        secs(cfg.Edgar.TimeoutSecs),
		SearchTTL:      secs(cfg.Cache.SearchTTLSecs),
		SubmissionsTTL: secs(cfg.Cache.SubmissionsTTLSecs),
		DocumentTTL:    secs(cfg.Cache.DocumentTTLSecs),
	}
}
