package cmd

import (
	"context"
	"fmt"

	"storyreel/internal/ai/component"
	"storyreel/internal/config"
	"storyreel/internal/pkg/ark"
	"storyreel/internal/pkg/storagefactory"
	"storyreel/internal/pkg/storytools"
	"storyreel/internal/pkg/storytools/providers"
	"storyreel/internal/pkg/tts"
	storysvc "storyreel/internal/service/story"
)

// buildDeps 按配置组装流水线依赖
func buildDeps(ctx context.Context, cfg *config.Config) (storysvc.Deps, error) {
	var deps storysvc.Deps

	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return deps, fmt.Errorf("failed to create storage: %w", err)
	}
	deps.Storage = store

	if deps.LLM, err = newLLMProvider(ctx, &cfg.AI); err != nil {
		return deps, err
	}
	if deps.TTS, err = newTTSProvider(&cfg.TTS); err != nil {
		return deps, err
	}

	if cfg.Assets.Enabled {
		imageClient, err := ark.NewImageClient(&ark.ImageConfig{
			APIKey:  cfg.Assets.APIKey,
			BaseURL: cfg.Assets.BaseURL,
			Model:   cfg.Assets.ImageModel,
			Size:    cfg.Assets.ImageSize,
		})
		if err != nil {
			return deps, fmt.Errorf("failed to create image client: %w", err)
		}
		videoClient, err := ark.NewVideoClient(&ark.VideoConfig{
			APIKey:  cfg.Assets.APIKey,
			BaseURL: cfg.Assets.BaseURL,
			Model:   cfg.Assets.VideoModel,
			Ratio:   cfg.Assets.VideoRatio,
		})
		if err != nil {
			return deps, fmt.Errorf("failed to create video client: %w", err)
		}
		deps.Image = providers.NewArkImageProvider(imageClient)
		deps.Video = providers.NewArkVideoProvider(videoClient)
	}

	return deps, nil
}

// newLLMProvider ark-sdk 直接使用火山引擎 SDK，其余走 eino ChatModel
func newLLMProvider(ctx context.Context, cfg *config.AIConfig) (storytools.LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is required (env: STORYREEL_AI_API_KEY)")
	}

	if cfg.Provider == "ark-sdk" {
		client, err := ark.NewChatClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat client: %w", err)
		}
		return providers.NewArkProvider(client), nil
	}

	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return providers.NewEinoProvider(chatModel), nil
}

func newTTSProvider(cfg *config.TTSConfig) (storytools.TTSProvider, error) {
	switch cfg.Provider {
	case "volcengine":
		client, err := tts.NewVolcengineClient(tts.VolcengineConfig{
			APIURL:      cfg.APIURL,
			AccessToken: cfg.AccessToken,
			AppID:       cfg.AppID,
			Cluster:     cfg.Cluster,
			VoiceType:   cfg.Voice,
			SampleRate:  cfg.SampleRate,
			SpeedRatio:  cfg.SpeedRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create volcengine tts client: %w", err)
		}
		return providers.NewVolcengineTTSProvider(client), nil
	case "gemini":
		client, err := tts.NewGeminiClient(tts.GeminiConfig{
			APIURL:      cfg.APIURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Voice:       cfg.Voice,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini tts client: %w", err)
		}
		return providers.NewGeminiTTSProvider(client), nil
	default:
		return nil, fmt.Errorf("unsupported TTS provider: %s", cfg.Provider)
	}
}
