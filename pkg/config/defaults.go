package config

// Storage driver names.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Event stream provider names.
const (
	EventStreamNone  = "none"
	EventStreamKafka = "kafka"
)

const (
	defaultServerTarget   = "http://localhost:8080"
	defaultIdleTimeout    = "60s"
	defaultRequestTimeout = "30s"

	defaultListen = ":8080"

	defaultProvider = "openai"
	defaultModel    = "gpt-3.5-turbo"
	defaultBurst    = 5

	defaultTopic = "chatter.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			ServerTarget:   defaultServerTarget,
			IdleTimeout:    defaultIdleTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Chat: ChatConfig{
			KeepPartial: false,
			Markdown:    true,
		},
		Server: ServerConfig{
			Listen: defaultListen,
		},
		// An empty SQLitePath resolves to chatter.db in the .chatter/ dir.
		Storage: StorageConfig{
			Driver: StorageSQLite,
		},
		Assistant: AssistantConfig{
			Provider:  defaultProvider,
			Model:     defaultModel,
			RateBurst: defaultBurst,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNone,
			Topic:    defaultTopic,
		},
	}
}
