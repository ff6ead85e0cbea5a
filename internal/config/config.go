package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Chunking
	ChunkMaxChars int `envconfig:"CHUNK_MAX_CHARS" default:"500"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"50"`

	// Retrieval
	TopKDefault int `envconfig:"TOP_K_DEFAULT" default:"3"`

	// Generative calls
	LLMRetryLimit int           `envconfig:"LLM_RETRY_LIMIT" default:"2"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	// Batch processing
	BatchConcurrency int `envconfig:"BATCH_CONCURRENCY" default:"8"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CLAIMPILOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
