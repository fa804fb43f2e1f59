package story

import (
	"context"

	"github.com/rs/zerolog/log"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storytools"
)

// AssetGenerator 可选的素材阶段：图片 -> 图生视频
// 任何失败只记录日志，提示词文件仍然保留供人工生成
type AssetGenerator struct {
	run      *Run
	image    storytools.ImageProvider
	video    storytools.VideoProvider
	throttle *retry.Throttle
	settings Settings
}

// NewAssetGenerator 创建素材生成器，video 可以为 nil（只生成图片）
func NewAssetGenerator(run *Run, image storytools.ImageProvider, video storytools.VideoProvider, throttle *retry.Throttle, settings Settings) *AssetGenerator {
	return &AssetGenerator{
		run:      run,
		image:    image,
		video:    video,
		throttle: throttle,
		settings: settings,
	}
}

// Generate 为场景生成图片和视频片段
// 返回的错误只来自 ctx 取消或写文件失败
func (g *AssetGenerator) Generate(ctx context.Context, scene *storymodel.Scene) error {
	if g.image == nil || scene.ImagePrompt == "" {
		return nil
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return err
	}
	imageData, err := g.image.GenerateImage(ctx, scene.ImagePrompt)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Int("scene", scene.Number).Msg("图片生成失败，跳过素材阶段")
		return nil
	}

	imageKey := ImageKey(scene.Number)
	if _, err := g.run.WriteBytes(ctx, imageKey, imageData); err != nil {
		return err
	}
	scene.ImageKey = imageKey

	if g.video == nil {
		return nil
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return err
	}
	videoData, err := g.video.GenerateVideo(ctx, imageData, scene.VideoPrompt, g.settings.clipSeconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Int("scene", scene.Number).Msg("视频生成失败，保留图片")
		return nil
	}

	videoKey := VideoKey(scene.Number)
	if _, err := g.run.WriteBytes(ctx, videoKey, videoData); err != nil {
		return err
	}
	scene.VideoKey = videoKey

	log.Info().Int("scene", scene.Number).Str("image", imageKey).Str("video", videoKey).Msg("场景素材已生成")
	return nil
}
