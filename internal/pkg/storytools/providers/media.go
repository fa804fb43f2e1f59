package providers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"storyreel/internal/pkg/ark"
)

// ArkImageProvider Ark 图片生成提供者
// 适配层，调用 ark.ImageClient（使用官方 Go SDK）
type ArkImageProvider struct {
	client *ark.ImageClient
}

// NewArkImageProvider 创建 Ark 图片生成提供者
func NewArkImageProvider(client *ark.ImageClient) *ArkImageProvider {
	return &ArkImageProvider{client: client}
}

// GenerateImage 生成图片
func (p *ArkImageProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	imageData, err := p.client.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("Ark generate image: %w", err)
	}

	log.Debug().Int("size", len(imageData)).Msg("Ark 图片生成成功")
	return imageData, nil
}

// ArkVideoProvider Ark 图生视频提供者
// 适配层，调用 ark.VideoClient
type ArkVideoProvider struct {
	client *ark.VideoClient
}

// NewArkVideoProvider 创建 Ark 图生视频提供者
func NewArkVideoProvider(client *ark.VideoClient) *ArkVideoProvider {
	return &ArkVideoProvider{client: client}
}

// GenerateVideo 以图片为首帧生成视频
func (p *ArkVideoProvider) GenerateVideo(ctx context.Context, image []byte, prompt string, seconds int) ([]byte, error) {
	videoData, err := p.client.GenerateVideoFromImage(ctx, image, seconds, prompt)
	if err != nil {
		return nil, fmt.Errorf("Ark generate video: %w", err)
	}

	log.Debug().Int("size", len(videoData)).Int("seconds", seconds).Msg("Ark 视频生成成功")
	return videoData, nil
}
