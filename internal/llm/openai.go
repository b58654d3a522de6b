package llm

import (
	"context"
	"fmt"
	"log"

	"convohub-backend/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the language-model collaborator boundary: chat generation,
// text embedding and audio transcription.
type Client interface {
	Generate(ctx context.Context, msgs []models.Message) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// Compile-time check to ensure OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)

// OpenAIClient calls the hosted OpenAI API. It is a shared, read-mostly
// handle, safe for concurrent use by in-flight requests.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
	temperature    float32
}

// NewOpenAIClient creates a client bound to the configured chat and
// embedding models.
func NewOpenAIClient(apiKey, model, embeddingModel string, temperature float32) *OpenAIClient {
	return &OpenAIClient{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		temperature:    temperature,
	}
}

// Generate produces one assistant reply for the given message sequence.
func (c *OpenAIClient) Generate(ctx context.Context, msgs []models.Message) (string, error) {
	chatMsgs := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role, err := openAIRole(m.Role)
		if err != nil {
			return "", err
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: c.temperature,
	})
	if err != nil {
		log.Printf("ERROR [OpenAIClient] Generate: chat completion failed: %v", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one embedding vector per input text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.embeddingModel,
	})
	if err != nil {
		log.Printf("ERROR [OpenAIClient] Embed: embedding request failed: %v", err)
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Transcribe converts an audio file to text.
func (c *OpenAIClient) Transcribe(ctx context.Context, filePath string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filePath,
	})
	if err != nil {
		log.Printf("ERROR [OpenAIClient] Transcribe: transcription failed: %v", err)
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.Text, nil
}

// openAIRole maps the closed message taxonomy onto OpenAI chat roles.
func openAIRole(r models.Role) (string, error) {
	switch r {
	case models.RoleSystem:
		return openai.ChatMessageRoleSystem, nil
	case models.RoleHuman:
		return openai.ChatMessageRoleUser, nil
	case models.RoleAssistant:
		return openai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown message role %q", string(r))
	}
}
