package story

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storytools"
)

// Expander 故事扩写：把一句想法扩写成固定数量的场景
//
// 设计原则：
//   - 只负责组装 prompt、调用注入的 LLM、解析结果并写入 story_data
//   - API 错误和解析错误都按重试策略重试，用尽后返回 ErrExpansionFailed
type Expander struct {
	run      *Run
	llm      storytools.LLMProvider
	throttle *retry.Throttle
	settings Settings
	now      func() time.Time
}

// NewExpander 创建故事扩写器
func NewExpander(run *Run, llm storytools.LLMProvider, throttle *retry.Throttle, settings Settings) *Expander {
	return &Expander{
		run:      run,
		llm:      llm,
		throttle: throttle,
		settings: settings,
		now:      time.Now,
	}
}

// Expand 扩写故事并写入 story_data/expanded_story.json
func (e *Expander) Expand(ctx context.Context, idea string, durationMinutes float64) (*storymodel.Story, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}
	if durationMinutes <= 0 || math.IsNaN(durationMinutes) || math.IsInf(durationMinutes, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, durationMinutes)
	}
	if e.llm == nil {
		return nil, fmt.Errorf("llmProvider is required")
	}
	if durationMinutes > storytools.LongDurationMinutes {
		log.Warn().
			Float64("duration_minutes", durationMinutes).
			Msg("时长较长，建议 1-5 分钟")
	}

	clipSeconds := e.settings.clipSeconds()
	sceneCount := storytools.SceneCount(durationMinutes, clipSeconds)
	prompt := storytools.ExpandStoryPrompt(idea, sceneCount, clipSeconds)

	log.Info().
		Int("scenes", sceneCount).
		Int("clip_seconds", clipSeconds).
		Float64("duration_minutes", durationMinutes).
		Msg("开始扩写故事")

	var outline []storytools.SceneOutline
	err := retry.Do(ctx, e.settings.LLMRetry, "expand story", func(ctx context.Context, attempt int) error {
		if err := e.throttle.Wait(ctx); err != nil {
			return err
		}
		text, err := e.llm.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		outline, err = storytools.ParseSceneOutline(text, sceneCount)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("raw", preview(text, 200)).
				Msg("解析故事结构失败")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExpansionFailed, err)
	}

	story := &storymodel.Story{
		RunID:                e.run.ID,
		Idea:                 idea,
		DurationMinutes:      durationMinutes,
		ClipSeconds:          clipSeconds,
		NumClips:             sceneCount,
		TotalDurationSeconds: storytools.TotalSeconds(sceneCount, clipSeconds),
		Scenes:               make([]*storymodel.Scene, 0, len(outline)),
		CreatedAt:            e.now(),
	}
	for i, o := range outline {
		story.Scenes = append(story.Scenes, &storymodel.Scene{
			Number:      i + 1,
			Title:       o.Title,
			Description: o.Description,
		})
	}

	location, err := e.run.WriteJSON(ctx, KeyExpandedStory, story)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", location).Int("scenes", len(story.Scenes)).Msg("故事扩写完成")
	for _, scene := range story.Scenes {
		log.Info().
			Int("scene", scene.Number).
			Str("title", scene.Title).
			Str("description", preview(scene.Description, 70)).
			Msg("场景大纲")
	}

	return story, nil
}

// preview 截取前 n 个字符用于日志
func preview(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
