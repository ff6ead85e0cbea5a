package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the OpenAI model used for entity extraction and decision synthesis
	DefaultChatModel = openai.GPT4oMini

	// chatTemperature keeps generative output stable across identical prompts
	chatTemperature = 0.1
	chatMaxTokens   = 1000
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrEmptyPrompt is returned when a chat prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// ChatAPI defines the interface for chat-based text generation
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, system, user string) (string, error)
}

// Client wraps the OpenAI API client
type Client struct {
	embeddings EmbeddingAPI
	chat       ChatAPI
	dimensions int
}

type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewOpenAIAdapter(apiKey string, embeddingModel openai.EmbeddingModel, chatModel string) *OpenAIAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &OpenAIAdapter{
		client:         openai.NewClient(apiKey),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion calls the OpenAI chat API with a system and user message
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel)
	return &Client{
		embeddings: adapter,
		chat:       adapter,
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Complete sends a system/user prompt pair and returns the raw completion text
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyPrompt
	}

	text, err := c.chat.CreateChatCompletion(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	return text, nil
}
