package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// FileName is the optional settings file looked up in the working directory.
const FileName = "i18n-analyzer"

type Config struct {
	DatabaseURL         string
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	WorkerCount         int
	BatchSize           int
	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingDimensions int
	SimilarityThreshold float64
	DefaultLanguage     string
	LogLevel            string
}

// Load reads .env, the optional i18n-analyzer.yaml and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return LoadFile("")
}

// LoadFile is Load without .env handling. An empty path searches the working
// directory for i18n-analyzer.yaml; a missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	cfg := &Config{
		DatabaseURL:         v.GetString("database_url"),
		Neo4jURI:            v.GetString("neo4j_uri"),
		Neo4jUser:           v.GetString("neo4j_user"),
		Neo4jPassword:       v.GetString("neo4j_password"),
		WorkerCount:         v.GetInt("worker_count"),
		BatchSize:           v.GetInt("batch_size"),
		EmbeddingAPIKey:     v.GetString("embedding_api_key"),
		EmbeddingModel:      v.GetString("embedding_model"),
		EmbeddingBaseURL:    v.GetString("embedding_base_url"),
		EmbeddingDimensions: v.GetInt("embedding_dimensions"),
		SimilarityThreshold: v.GetFloat64("similarity_threshold"),
		DefaultLanguage:     v.GetString("default_language"),
		LogLevel:            v.GetString("log_level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "postgres://localhost:5432/i18n?sslmode=disable")
	v.SetDefault("neo4j_uri", "bolt://localhost:7687")
	v.SetDefault("neo4j_user", "neo4j")
	v.SetDefault("neo4j_password", "password")
	v.SetDefault("worker_count", 8)
	v.SetDefault("batch_size", 100)
	v.SetDefault("embedding_api_key", "")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding_dimensions", 1536)
	v.SetDefault("similarity_threshold", 0.92)
	v.SetDefault("default_language", "en")
	v.SetDefault("log_level", "info")
}
