package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent chatter configuration stored as
// config.toml in the .chatter/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Client      ClientConfig      `toml:"client"`
	Chat        ChatConfig        `toml:"chat"`
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Assistant   AssistantConfig   `toml:"assistant"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// backend (e.g. chatter chat, chatter conversations).
type ClientConfig struct {
	// ServerTarget is the backend URL (scheme + host + port).
	ServerTarget string `toml:"server_target,omitempty"`

	// IdleTimeout ends a chat stream that receives no bytes for this long.
	// "0s" disables the watchdog.
	IdleTimeout string `toml:"idle_timeout,omitempty"`

	// RequestTimeout bounds non-streaming requests.
	RequestTimeout string `toml:"request_timeout,omitempty"`
}

// Timeouts parses IdleTimeout and RequestTimeout. Empty values parse as zero.
func (c ClientConfig) Timeouts() (idle, request time.Duration, err error) {
	if idle, err = parseDuration("client.idle_timeout", c.IdleTimeout); err != nil {
		return 0, 0, err
	}
	if request, err = parseDuration("client.request_timeout", c.RequestTimeout); err != nil {
		return 0, 0, err
	}
	return idle, request, nil
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}

// ChatConfig holds presentation settings for chat sessions.
type ChatConfig struct {
	// KeepPartial shows reply text received before a failure under the
	// error instead of discarding it.
	KeepPartial bool `toml:"keep_partial"`

	// Markdown renders finished replies with glamour on a TTY.
	Markdown bool `toml:"markdown"`
}

// ServerConfig holds backend HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig selects and configures the backend's conversation store.
type StorageConfig struct {
	// Driver is one of "sqlite", "postgres" or "memory".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// AssistantConfig configures the upstream provider the backend relays to.
type AssistantConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`

	// APIKey may be an "ssm:/path" reference to an SSM parameter.
	APIKey       string `toml:"api_key,omitempty"`
	SystemPrompt string `toml:"system_prompt,omitempty"`

	// RateLimit is chat requests per second; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit,omitempty"`
	RateBurst int     `toml:"rate_burst,omitempty"`
}

// EventStreamConfig configures where completed turns are published.
type EventStreamConfig struct {
	// Provider is "none" or "kafka".
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.server_target":   stringKey(func(c *Config) *string { return &c.Client.ServerTarget }),
	"client.idle_timeout":    durationKey("client.idle_timeout", func(c *Config) *string { return &c.Client.IdleTimeout }),
	"client.request_timeout": durationKey("client.request_timeout", func(c *Config) *string { return &c.Client.RequestTimeout }),
	"chat.keep_partial":      boolKey("chat.keep_partial", func(c *Config) *bool { return &c.Chat.KeepPartial }),
	"chat.markdown":          boolKey("chat.markdown", func(c *Config) *bool { return &c.Chat.Markdown }),
	"server.listen":          stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error {
			switch v {
			case StorageSQLite, StoragePostgres, StorageMemory:
				c.Storage.Driver = v
				return nil
			default:
				return fmt.Errorf("invalid value for storage.driver: %q (supported: %s, %s, %s)", v, StorageSQLite, StoragePostgres, StorageMemory)
			}
		},
	},
	"storage.sqlite_path":     stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn":    stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"assistant.provider":      stringKey(func(c *Config) *string { return &c.Assistant.Provider }),
	"assistant.model":         stringKey(func(c *Config) *string { return &c.Assistant.Model }),
	"assistant.base_url":      stringKey(func(c *Config) *string { return &c.Assistant.BaseURL }),
	"assistant.api_key":       stringKey(func(c *Config) *string { return &c.Assistant.APIKey }),
	"assistant.system_prompt": stringKey(func(c *Config) *string { return &c.Assistant.SystemPrompt }),
	"assistant.rate_limit": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Assistant.RateLimit, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid value for assistant.rate_limit: %q", v)
			}
			c.Assistant.RateLimit = f
			return nil
		},
	},
	"assistant.rate_burst": {
		get: func(c *Config) string { return strconv.Itoa(c.Assistant.RateBurst) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for assistant.rate_burst: %q", v)
			}
			c.Assistant.RateBurst = n
			return nil
		},
	},
	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers": {
		get: func(c *Config) string { return joinList(c.EventStream.Brokers) },
		set: func(c *Config, v string) error { c.EventStream.Brokers = splitList(v); return nil },
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}
