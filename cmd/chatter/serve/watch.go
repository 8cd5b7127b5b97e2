package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/llm"
)

const configFileName = "config.toml"

// assistantTarget is the part of the assistant service a config reload
// touches.
type assistantTarget interface {
	UpdateSettings(ctx context.Context, next llm.Settings) error
	SetSystemPrompt(prompt string)
	SetRateLimit(limit float64, burst int)
}

// configWatcher applies edits to the [assistant] section of config.toml
// to a running assistant.
type configWatcher struct {
	dir     string
	current config.AssistantConfig
	target  assistantTarget
	logger  *slog.Logger
}

func newConfigWatcher(dir string, current config.AssistantConfig, target assistantTarget, l *slog.Logger) *configWatcher {
	return &configWatcher{
		dir:     dir,
		current: current,
		target:  target,
		logger:  l,
	}
}

// Run watches the config directory until ctx is done.
func (w *configWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched.
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching config dir: %w", err)
	}

	path := filepath.Join(w.dir, configFileName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config watcher error: %w", err)
		}
	}
}

func (w *configWatcher) reload(ctx context.Context) {
	cfger, err := config.NewConfiger(w.dir)
	if err != nil {
		w.logger.Warn("reloading config", "error", err)
		return
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		w.logger.Warn("reloading config", "error", err)
		return
	}

	w.apply(ctx, cfg.Assistant)
}

// apply pushes whatever differs between next and the last applied section.
func (w *configWatcher) apply(ctx context.Context, next config.AssistantConfig) {
	prev := w.current

	if next.Provider != prev.Provider || next.Model != prev.Model ||
		next.BaseURL != prev.BaseURL || next.APIKey != prev.APIKey {
		err := w.target.UpdateSettings(ctx, llm.Settings{
			Provider: next.Provider,
			Model:    next.Model,
			BaseURL:  next.BaseURL,
			APIKey:   next.APIKey,
		})
		if err != nil {
			w.logger.Warn("config reload rejected", "error", err)
			return
		}
	}

	if next.SystemPrompt != prev.SystemPrompt {
		w.target.SetSystemPrompt(next.SystemPrompt)
		w.logger.Info("system prompt updated")
	}

	if next.RateLimit != prev.RateLimit || next.RateBurst != prev.RateBurst {
		w.target.SetRateLimit(next.RateLimit, next.RateBurst)
		w.logger.Info("rate limit updated", "limit", next.RateLimit, "burst", next.RateBurst)
	}

	w.current = next
}
