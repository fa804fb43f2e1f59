package story

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/ctxutil"
	"storyreel/internal/pkg/id"
	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storage"
	"storyreel/internal/pkg/storytools"
)

// Deps 流水线依赖，Image / Video 只在开启素材阶段时使用
type Deps struct {
	Storage storage.Storage
	LLM     storytools.LLMProvider
	TTS     storytools.TTSProvider
	Image   storytools.ImageProvider
	Video   storytools.VideoProvider
}

// Summary 运行结果汇总
type Summary struct {
	RunID           string   `json:"run_id"`
	StoryLocation   string   `json:"story_location"`   // expanded_story.json 的位置
	PromptsLocation string   `json:"prompts_location"` // all_scene_prompts.json 的位置
	Scenes          int      `json:"scenes"`
	PromptFiles     []string `json:"prompt_files"`
	PromptFallbacks int      `json:"prompt_fallbacks"` // 使用模板提示词的场景数
	AudioFiles      []string `json:"audio_files"`
	FallbackFiles   []string `json:"fallback_files"`
	Images          int      `json:"images"`
	Videos          int      `json:"videos"`
}

// Pipeline 按场景顺序执行：扩写 -> (提示词 -> 素材 -> 旁白) × N
// 严格串行，所有 API 调用共用一个节流器
type Pipeline struct {
	deps     Deps
	settings Settings
	now      func() time.Time
}

// NewPipeline 创建流水线
func NewPipeline(deps Deps, settings Settings) *Pipeline {
	return &Pipeline{
		deps:     deps,
		settings: settings,
		now:      time.Now,
	}
}

// Run 执行一次完整的流水线
// 扩写失败是致命错误；单个场景的提示词或旁白失败会降级并继续下一个场景
func (p *Pipeline) Run(ctx context.Context, idea string, durationMinutes float64) (*Summary, error) {
	if p.deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}

	runID := p.settings.RunID
	if runID == "" {
		runID = id.NewRunID(p.now())
	}
	if !id.IsValidRunID(runID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	run := NewRun(runID, p.deps.Storage)
	if err := p.ensureNewRun(ctx, run); err != nil {
		return nil, err
	}
	ctx = ctxutil.WithRunID(ctx, runID)
	throttle := retry.NewThrottle(p.settings.RequestDelay)

	expander := NewExpander(run, p.deps.LLM, throttle, p.settings)
	expander.now = p.now
	builder := NewPromptBuilder(run, p.deps.LLM, throttle, p.settings)
	narrator := NewNarrator(run, p.deps.TTS, throttle, p.settings)

	var assets *AssetGenerator
	if p.settings.Assets && p.deps.Image != nil {
		assets = NewAssetGenerator(run, p.deps.Image, p.deps.Video, throttle, p.settings)
	}

	log.Info().Str("run_id", runID).Msg("开始运行")

	story, err := expander.Expand(ctx, idea, durationMinutes)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:         runID,
		StoryLocation: run.Location(KeyExpandedStory),
		Scenes:        len(story.Scenes),
	}

	total := len(story.Scenes)
	for _, scene := range story.Scenes {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		log.Info().
			Int("scene", scene.Number).
			Int("total", total).
			Str("title", scene.Title).
			Msg("处理场景")

		if err := p.processScene(ctx, builder, assets, narrator, scene, total, summary); err != nil {
			return summary, err
		}
	}

	location, err := run.WriteJSON(ctx, KeyAllScenePrompts, story.Scenes)
	if err != nil {
		return summary, err
	}
	summary.PromptsLocation = location

	log.Info().
		Str("run_id", runID).
		Int("scenes", summary.Scenes).
		Int("audio_files", len(summary.AudioFiles)).
		Int("fallback_files", len(summary.FallbackFiles)).
		Int("prompt_files", len(summary.PromptFiles)).
		Msg("运行完成")

	return summary, nil
}

// ensureNewRun 运行目录已存在时拒绝继续，避免覆盖之前的输出
// OSS 没有目录，额外检查 expanded_story.json
func (p *Pipeline) ensureNewRun(ctx context.Context, run *Run) error {
	for _, key := range []string{run.ID, run.Key(KeyExpandedStory)} {
		exists, err := p.deps.Storage.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check run %s: %w", run.ID, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
		}
	}
	return nil
}

func (p *Pipeline) processScene(
	ctx context.Context,
	builder *PromptBuilder,
	assets *AssetGenerator,
	narrator *Narrator,
	scene *storymodel.Scene,
	total int,
	summary *Summary,
) error {
	if err := builder.Build(ctx, scene, total); err != nil {
		return err
	}
	if scene.PromptsFallback {
		summary.PromptFallbacks++
	}

	keys, err := builder.Write(ctx, scene)
	summary.PromptFiles = append(summary.PromptFiles, keys...)
	if err != nil {
		return err
	}

	if assets != nil {
		if err := assets.Generate(ctx, scene); err != nil {
			return err
		}
		if scene.ImageKey != "" {
			summary.Images++
		}
		if scene.VideoKey != "" {
			summary.Videos++
		}
	}

	if err := narrator.Synthesize(ctx, scene); err != nil {
		return err
	}
	switch scene.NarrationStatus {
	case storymodel.NarrationAudio:
		summary.AudioFiles = append(summary.AudioFiles, scene.NarrationAudioKey)
	case storymodel.NarrationFallback:
		summary.FallbackFiles = append(summary.FallbackFiles, scene.NarrationFallbackKey)
	}

	return nil
}
