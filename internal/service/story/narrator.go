package story

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storytools"
)

// Narrator 旁白合成
// TTS 失败只影响当前场景：没有音频或重试用尽时写入文本降级文件并继续
type Narrator struct {
	run      *Run
	tts      storytools.TTSProvider
	throttle *retry.Throttle
	settings Settings
}

// NewNarrator 创建旁白合成器
func NewNarrator(run *Run, tts storytools.TTSProvider, throttle *retry.Throttle, settings Settings) *Narrator {
	return &Narrator{
		run:      run,
		tts:      tts,
		throttle: throttle,
		settings: settings,
	}
}

// Synthesize 为场景生成旁白音频，失败时写入 narration_NN.txt
// 返回的错误只来自 ctx 取消或写文件失败
func (n *Narrator) Synthesize(ctx context.Context, scene *storymodel.Scene) error {
	text := storytools.CleanNarration(scene.NarrationText)
	ttsPrompt := storytools.TTSPrompt(scene.NarrationVoiceDirection, text, n.settings.clipSeconds())

	if text == "" {
		return n.writeFallback(ctx, scene, ttsPrompt, errors.New("narration text is empty"))
	}
	if n.tts == nil {
		return n.writeFallback(ctx, scene, ttsPrompt, errors.New("ttsProvider is required"))
	}

	log.Info().Int("scene", scene.Number).Str("text", text).Msg("生成旁白音频")

	req := storytools.SpeechRequest{Text: text, Prompt: ttsPrompt}
	var result *storytools.SpeechResult
	err := retry.Do(ctx, n.settings.TTSRetry, "synthesize narration", func(ctx context.Context, attempt int) error {
		if err := n.throttle.Wait(ctx); err != nil {
			return err
		}
		var err error
		result, err = n.tts.Synthesize(ctx, req)
		return err
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		log.Error().Err(err).Int("scene", scene.Number).Msg("TTS 生成失败，保存旁白文本")
		return n.writeFallback(ctx, scene, ttsPrompt, err)
	}

	// 没有音频不重试，直接降级
	if !result.HasAudio() {
		log.Warn().Err(ErrMissingAudio).Int("scene", scene.Number).Msg("TTS 响应中没有音频，保存旁白文本")
		return n.writeFallback(ctx, scene, ttsPrompt, nil)
	}

	format := result.Format
	if format == "" {
		format = "mp3"
	}
	key := NarrationKey(scene.Number, format)
	location, err := n.run.WriteBytes(ctx, key, result.AudioData)
	if err != nil {
		return err
	}

	scene.NarrationStatus = storymodel.NarrationAudio
	scene.NarrationAudioKey = key

	log.Info().
		Int("scene", scene.Number).
		Str("path", location).
		Float64("duration", result.Duration).
		Msg("旁白音频已生成")

	return nil
}

// writeFallback 写入旁白文本降级文件
// cause 为 nil 表示 TTS 调用成功但没有返回音频，此时文件中记录 TTS 提示词
func (n *Narrator) writeFallback(ctx context.Context, scene *storymodel.Scene, ttsPrompt string, cause error) error {
	key := NarrationKey(scene.Number, "txt")
	content := storytools.RenderNarrationFallback(
		scene.Number,
		scene.Title,
		scene.NarrationText,
		scene.NarrationVoiceDirection,
		ttsPrompt,
		cause,
	)

	location, err := n.run.WriteText(ctx, key, content)
	if err != nil {
		return fmt.Errorf("write narration fallback: %w", err)
	}

	scene.NarrationStatus = storymodel.NarrationFallback
	scene.NarrationFallbackKey = key

	log.Info().Int("scene", scene.Number).Str("path", location).Msg("旁白文本已保存")
	return nil
}
