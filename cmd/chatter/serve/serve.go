// Package servecmder provides the serve command that runs the chatter backend.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatter/api"
	"github.com/papercomputeco/chatter/pkg/assistant"
	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/dotdir"
	"github.com/papercomputeco/chatter/pkg/llm"
	"github.com/papercomputeco/chatter/pkg/paramstore"
	"github.com/papercomputeco/chatter/pkg/worker"
)

type serveCommander struct {
	listen      string
	storage     string
	sqlitePath  string
	postgresDSN string
	provider    string
	model       string
	baseURL     string
	logFile     string

	debug     bool
	configDir string
	logger    *slog.Logger
}

var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagProvider,
	config.FlagModel,
	config.FlagBaseURL,
}

const serveLongDesc string = `Run the chatter backend.

The backend relays chat messages to the configured upstream provider,
streams replies to clients as server-sent events, and stores every
conversation. Completed turns are optionally published to Kafka.

Changes to the [assistant] section of config.toml are applied without a
restart.

Examples:
  chatter serve
  chatter serve --listen :9000 --storage memory
  chatter serve --log-file .chatter/serve.log
  chatter serve --provider anthropic --model claude-3-5-haiku-latest
  chatter serve --storage postgres --postgres-dsn postgres://localhost/chatter`

const serveShortDesc string = "Run the chatter backend"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ServeFlags, serveFlagKeys)

			return cmder.run(cmd.Context(), config.FromViper(v))
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagStorage, &cmder.storage)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagBaseURL, &cmder.baseURL)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file; console output becomes human readable")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var closeLog func() error
	var err error
	c.logger, closeLog, err = newServeLogger(c.debug, os.Stderr, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	dir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return err
	}

	driver, err := newDriver(ctx, cfg.Storage, dir, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := newPublisher(cfg.EventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	var secrets paramstore.Getter
	if paramstore.IsRef(cfg.Assistant.APIKey) {
		client, err := paramstore.NewFromEnv(ctx)
		if err != nil {
			return err
		}
		secrets = client
	}

	apiKey, err := paramstore.Resolve(ctx, secrets, cfg.Assistant.APIKey)
	if err != nil {
		return fmt.Errorf("resolving api key: %w", err)
	}

	svc, err := assistant.New(&assistant.Config{
		Driver: driver,
		Settings: llm.Settings{
			Provider: cfg.Assistant.Provider,
			Model:    cfg.Assistant.Model,
			BaseURL:  cfg.Assistant.BaseURL,
			APIKey:   apiKey,
		},
		SystemPrompt: cfg.Assistant.SystemPrompt,
		RateLimit:    cfg.Assistant.RateLimit,
		RateBurst:    cfg.Assistant.RateBurst,
		Pool:         pool,
		Secrets:      secrets,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	watcher := newConfigWatcher(dir, cfg.Assistant, svc, c.logger)
	go func() {
		if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("config watcher stopped", "error", err)
		}
	}()

	apiServer := api.NewServer(api.Config{ListenAddr: cfg.Server.Listen}, svc, c.logger)

	c.logger.Info("starting chatter backend",
		"listen", cfg.Server.Listen,
		"storage", cfg.Storage.Driver,
		"provider", cfg.Assistant.Provider,
		"model", cfg.Assistant.Model,
		"eventstream", cfg.EventStream.Provider,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context done, shutting down")
	}

	if err := apiServer.Shutdown(); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
