package ark

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"storyreel/internal/config"
)

const (
	DefaultBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultChatModel = "doubao-seed-1-6-flash-250615"
)

// ChatClient Ark 文本对话客户端
// 直接使用官方 volcengine-go-sdk，不经过 eino（ai.provider=ark-sdk 时使用）
type ChatClient struct {
	client      *arkruntime.Client
	model       string
	maxTokens   int
	temperature float32
	topP        float32
}

// NewChatClient 创建 Ark 对话客户端
func NewChatClient(cfg *config.AIConfig) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ark API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultChatModel
	}

	arkClient := arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL))

	maxTokens := cfg.Options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 32 * 1024
	}
	temperature := float32(cfg.Options.Temperature)
	if temperature <= 0 {
		temperature = 0.7
	}

	return &ChatClient{
		client:      arkClient,
		model:       modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        float32(cfg.Options.TopP),
	}, nil
}

// Complete 单轮对话：发送一条 user 消息，返回第一个候选的文本
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	content := prompt
	maxTokens := c.maxTokens
	temperature := c.temperature
	input := model.CreateChatCompletionRequest{
		Model: c.model,
		Messages: []*model.ChatCompletionMessage{
			{
				Role:    model.ChatMessageRoleUser,
				Content: &model.ChatCompletionMessageContent{StringValue: &content},
			},
		},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}
	if c.topP > 0 {
		topP := c.topP
		input.TopP = &topP
	}

	output, err := c.client.CreateChatCompletion(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("failed to call Ark ChatCompletion API")
		return "", fmt.Errorf("ark chat completion: %w", err)
	}

	if len(output.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	msg := output.Choices[0].Message
	if msg.Content == nil || msg.Content.StringValue == nil {
		return "", fmt.Errorf("empty message content in response")
	}

	log.Debug().
		Str("model", c.model).
		Int("total_tokens", output.Usage.TotalTokens).
		Msg("ark chat completion done")

	return *msg.Content.StringValue, nil
}
