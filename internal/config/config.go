package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Vector    VectorConfig
	Agent     AgentConfig
	Chunking  ChunkingConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Runtime flags, set from command line rather than the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	GenerationModel string `mapstructure:"generation_model"`
	EmbeddingModel  string `mapstructure:"embedding_model"`
}

type VectorConfig struct {
	APIKey        string `mapstructure:"api_key"`
	DocumentIndex string `mapstructure:"document_index"`
	ExerciseIndex string `mapstructure:"exercise_index"`
	// Provider is "pinecone" or "memory". Memory keeps vectors in-process
	// and is meant for single-node deployments and local development.
	Provider string `mapstructure:"provider"`
}

type AgentConfig struct {
	DefaultMaxIterations     int `mapstructure:"default_max_iterations"`
	CompositionMaxIterations int `mapstructure:"composition_max_iterations"`
	RetryMaxAttempts         int `mapstructure:"retry_max_attempts"`
	RetryBaseSeconds         int `mapstructure:"retry_base_seconds"`
	EntryTestQuestionCount   int `mapstructure:"entry_test_question_count"`
	MaxTopics                int `mapstructure:"max_topics"`
}

type ChunkingConfig struct {
	BreakpointPercentile float64 `mapstructure:"breakpoint_percentile"`
	BufferSize           int     `mapstructure:"buffer_size"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EDUFORGE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis (conversation history store)
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.generation_model", "AI_GENERATION_MODEL")
	viper.BindEnv("ai.embedding_model", "AI_EMBEDDING_MODEL")

	// Vector index
	viper.BindEnv("vector.api_key", "VECTOR_API_KEY")
	viper.BindEnv("vector.document_index", "VECTOR_DOCUMENT_INDEX")
	viper.BindEnv("vector.exercise_index", "VECTOR_EXERCISE_INDEX")
	viper.BindEnv("vector.provider", "VECTOR_PROVIDER")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if cfg.Server.Mode == "release" && cfg.AI.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required in release mode")
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Agent.DefaultMaxIterations <= 0 {
		cfg.Agent.DefaultMaxIterations = 10
	}
	if cfg.Agent.CompositionMaxIterations <= 0 {
		cfg.Agent.CompositionMaxIterations = 40
	}
	if cfg.Agent.RetryMaxAttempts <= 0 {
		cfg.Agent.RetryMaxAttempts = 3
	}
	if cfg.Agent.RetryBaseSeconds <= 0 {
		cfg.Agent.RetryBaseSeconds = 2
	}
	if cfg.Agent.EntryTestQuestionCount <= 0 {
		cfg.Agent.EntryTestQuestionCount = 50
	}
	if cfg.Agent.MaxTopics <= 0 {
		cfg.Agent.MaxTopics = 8
	}
	if cfg.Chunking.BreakpointPercentile <= 0 {
		cfg.Chunking.BreakpointPercentile = 95
	}
	if cfg.Chunking.BufferSize <= 0 {
		cfg.Chunking.BufferSize = 3
	}
	if cfg.Vector.DocumentIndex == "" {
		cfg.Vector.DocumentIndex = "eduforge-documents"
	}
	if cfg.Vector.ExerciseIndex == "" {
		cfg.Vector.ExerciseIndex = "eduforge-exercises"
	}
	if cfg.Vector.Provider == "" {
		cfg.Vector.Provider = "memory"
	}
}
