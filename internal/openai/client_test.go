package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingAPI is a mock for the embedding API
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChatAPI is a mock for the chat completion API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{embeddings: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Knee surgery is covered for patients between 18 and 65 years."
	expectedEmbedding := make([]float32, 1536)
	for i := range expectedEmbedding {
		expectedEmbedding[i] = float32(i) * 0.001
	}

	mockAPI.On("CreateEmbeddings", ctx, text).Return(expectedEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 1536)
	assert.Equal(t, expectedEmbedding, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("")

	ctx := context.Background()
	embedding, err := client.GenerateEmbedding(ctx, "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{embeddings: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Test text"
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateEmbeddings", ctx, text).Return(nil, apiErr)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{embeddings: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Test text"
	wrongEmbedding := make([]float32, 512)

	mockAPI.On("CreateEmbeddings", ctx, text).Return(wrongEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrWrongDimensions, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{chat: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, "system prompt", "user prompt").Return(`{"approved": true}`, nil)

	text, err := client.Complete(ctx, "system prompt", "user prompt")

	assert.NoError(t, err)
	assert.Equal(t, `{"approved": true}`, text)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_EmptyPrompt(t *testing.T) {
	client := NewClient("")

	text, err := client.Complete(context.Background(), "system", "")

	assert.Error(t, err)
	assert.Empty(t, text)
	assert.Equal(t, ErrEmptyPrompt, err)
}

func TestClient_Complete_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{chat: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, "system", "user").Return("", errors.New("model overloaded"))

	text, err := client.Complete(ctx, "system", "user")

	assert.Error(t, err)
	assert.Empty(t, text)
	assert.Contains(t, err.Error(), "failed to create chat completion")
	mockAPI.AssertExpectations(t)
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key")

	assert.NotNil(t, client)
	assert.NotNil(t, client.embeddings)
	assert.NotNil(t, client.chat)
	assert.Equal(t, DefaultEmbeddingDimensions, client.dimensions)
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Error(t, err)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientFromEnv_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-api-key")

	client, err := NewClientFromEnv()

	assert.NotNil(t, client)
	assert.NoError(t, err)
}
