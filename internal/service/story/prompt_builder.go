package story

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storytools"
)

// PromptBuilder 为每个场景生成图片/视频/音效提示词以及旁白文本
// 模型持续失败时退回模板化提示词，保证后续人工步骤有文件可用
type PromptBuilder struct {
	run      *Run
	llm      storytools.LLMProvider
	throttle *retry.Throttle
	settings Settings
}

// NewPromptBuilder 创建场景提示词构建器
func NewPromptBuilder(run *Run, llm storytools.LLMProvider, throttle *retry.Throttle, settings Settings) *PromptBuilder {
	return &PromptBuilder{
		run:      run,
		llm:      llm,
		throttle: throttle,
		settings: settings,
	}
}

// Build 生成场景提示词并写回 scene
// 只有 ctx 取消会返回错误，其余失败都降级为模板
func (b *PromptBuilder) Build(ctx context.Context, scene *storymodel.Scene, total int) error {
	clipSeconds := b.settings.clipSeconds()
	prompt := storytools.SceneDetailPrompt(scene.Title, scene.Description, scene.Number, total, clipSeconds)

	var details *storytools.SceneDetails
	err := retry.Do(ctx, b.settings.LLMRetry, "build scene prompts", func(ctx context.Context, attempt int) error {
		if b.llm == nil {
			return fmt.Errorf("llmProvider is required")
		}
		if err := b.throttle.Wait(ctx); err != nil {
			return err
		}
		text, err := b.llm.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		details, err = storytools.ParseSceneDetails(text)
		return err
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		log.Warn().
			Err(err).
			Int("scene", scene.Number).
			Msg("场景提示词生成失败，使用模板提示词")
		details = storytools.FallbackSceneDetails(scene.Title, scene.Description, clipSeconds)
		scene.PromptsFallback = true
	}

	scene.ImagePrompt = details.ImagePrompt
	scene.VideoPrompt = details.VideoPrompt
	scene.SoundFXPrompt = details.SoundFX
	scene.NarrationText = details.NarrationText
	scene.NarrationVoiceDirection = details.NarrationVoiceDirection

	log.Info().
		Int("scene", scene.Number).
		Int("total", total).
		Bool("fallback", scene.PromptsFallback).
		Msg("场景提示词已生成")

	return nil
}

// Write 写入场景的三个提示词文件，返回写入的 key
func (b *PromptBuilder) Write(ctx context.Context, scene *storymodel.Scene) ([]string, error) {
	files := []struct {
		kind  PromptKind
		label string
		text  string
	}{
		{PromptImage, storytools.LabelImagePrompt, scene.ImagePrompt},
		{PromptVideo, storytools.LabelVideoPrompt, scene.VideoPrompt},
		{PromptSoundFX, storytools.LabelSoundFXPrompt, scene.SoundFXPrompt},
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := PromptKey(scene.Number, f.kind)
		content := storytools.RenderPromptFile(scene.Number, scene.Title, f.label, f.text)
		if _, err := b.run.WriteText(ctx, key, content); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	log.Debug().Int("scene", scene.Number).Strs("files", keys).Msg("场景提示词文件已保存")
	return keys, nil
}
