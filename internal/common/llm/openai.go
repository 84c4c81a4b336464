// internal/common/llm/openai.go
package llm

import (
	"context"
	stderrors "errors"

	"github.com/sashabaranov/go-openai"

	"rfp-proposal-engine/internal/common/config"
	"rfp-proposal-engine/internal/common/errors"
)

// OpenAIClient implements Completer and Embedder against the OpenAI API
// (or any compatible endpoint via base_url).
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
}

func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.NewLLMTimeoutError()
		}
		return "", errors.NewLLMCompletionFailedError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewLLMCompletionFailedError(stderrors.New("no response choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, errors.NewEmbeddingFailedError(err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.NewEmbeddingFailedError(stderrors.New("no embedding data"))
	}
	return resp.Data[0].Embedding, nil
}
