package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/chatter/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable chatter reads.
const EnvPrefix = "CHATTER"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CHATTER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CHATTER_SERVER_LISTEN, CHATTER_ASSISTANT_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.server_target", d.Client.ServerTarget)
	v.SetDefault("client.idle_timeout", d.Client.IdleTimeout)
	v.SetDefault("client.request_timeout", d.Client.RequestTimeout)

	// Chat
	v.SetDefault("chat.keep_partial", d.Chat.KeepPartial)
	v.SetDefault("chat.markdown", d.Chat.Markdown)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)

	// Storage
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Assistant
	v.SetDefault("assistant.provider", d.Assistant.Provider)
	v.SetDefault("assistant.model", d.Assistant.Model)
	v.SetDefault("assistant.base_url", d.Assistant.BaseURL)
	v.SetDefault("assistant.api_key", d.Assistant.APIKey)
	v.SetDefault("assistant.system_prompt", d.Assistant.SystemPrompt)
	v.SetDefault("assistant.rate_limit", d.Assistant.RateLimit)
	v.SetDefault("assistant.rate_burst", d.Assistant.RateBurst)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// FromViper builds a Config from v's merged view of flags, environment,
// file and defaults.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			ServerTarget:   v.GetString("client.server_target"),
			IdleTimeout:    v.GetString("client.idle_timeout"),
			RequestTimeout: v.GetString("client.request_timeout"),
		},
		Chat: ChatConfig{
			KeepPartial: v.GetBool("chat.keep_partial"),
			Markdown:    v.GetBool("chat.markdown"),
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Assistant: AssistantConfig{
			Provider:     v.GetString("assistant.provider"),
			Model:        v.GetString("assistant.model"),
			BaseURL:      v.GetString("assistant.base_url"),
			APIKey:       v.GetString("assistant.api_key"),
			SystemPrompt: v.GetString("assistant.system_prompt"),
			RateLimit:    v.GetFloat64("assistant.rate_limit"),
			RateBurst:    v.GetInt("assistant.rate_burst"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  v.GetStringSlice("eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
	}
}
