package story

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storage"
	"storyreel/internal/pkg/storytools"
)

// 运行目录内的固定布局
const (
	dirStoryData = "story_data"
	dirPrompts   = "prompts"
	dirNarration = "narration"
	dirImages    = "images"
	dirVideos    = "videos"

	KeyExpandedStory   = dirStoryData + "/expanded_story.json"
	KeyAllScenePrompts = dirStoryData + "/all_scene_prompts.json"
)

// PromptKind 提示词文件类型
type PromptKind string

const (
	PromptImage   PromptKind = "IMAGE"
	PromptVideo   PromptKind = "VIDEO"
	PromptSoundFX PromptKind = "SOUNDFX"
)

// PromptKey prompts/scene_NN_<KIND>.txt
func PromptKey(sceneNum int, kind PromptKind) string {
	return fmt.Sprintf("%s/scene_%02d_%s.txt", dirPrompts, sceneNum, kind)
}

// NarrationKey narration/narration_NN.<ext>
func NarrationKey(sceneNum int, ext string) string {
	return fmt.Sprintf("%s/narration_%02d.%s", dirNarration, sceneNum, ext)
}

// ImageKey images/clip_NN.jpeg
func ImageKey(sceneNum int) string {
	return fmt.Sprintf("%s/clip_%02d.jpeg", dirImages, sceneNum)
}

// VideoKey videos/clip_NN.mp4
func VideoKey(sceneNum int) string {
	return fmt.Sprintf("%s/clip_%02d.mp4", dirVideos, sceneNum)
}

// Run 一次运行的输出目录，所有文件写在 <run_id>/ 下，只写不读
type Run struct {
	ID        string
	store     storage.Storage
	locations map[string]string // 已写入文件的 key -> 位置
}

// NewRun 创建运行目录
func NewRun(id string, store storage.Storage) *Run {
	return &Run{ID: id, store: store, locations: make(map[string]string)}
}

// Location 返回已写入文件的位置（本地路径或URL），未写入时为空
func (r *Run) Location(key string) string {
	return r.locations[key]
}

// Key 运行目录内的相对 key 转换为存储 key
func (r *Run) Key(key string) string {
	return path.Join(r.ID, key)
}

// WriteBytes 写入文件，返回文件位置
func (r *Run) WriteBytes(ctx context.Context, key string, data []byte) (string, error) {
	location, err := r.store.Upload(ctx, r.Key(key), bytes.NewReader(data), storage.ContentType(key))
	if err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	r.locations[key] = location
	return location, nil
}

// WriteText 写入文本文件
func (r *Run) WriteText(ctx context.Context, key, text string) (string, error) {
	return r.WriteBytes(ctx, key, []byte(text))
}

// WriteJSON 以缩进格式写入 JSON 文件
func (r *Run) WriteJSON(ctx context.Context, key string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.WriteBytes(ctx, key, data)
}

// Settings 流水线参数
type Settings struct {
	RunID        string        // 为空时自动生成
	ClipSeconds  int           // 单个片段时长（秒）
	RequestDelay time.Duration // 两次 API 调用之间的最小间隔
	LLMRetry     retry.Policy  // 文本模型重试策略
	TTSRetry     retry.Policy  // TTS 重试策略
	Assets       bool          // 是否生成图片/视频素材
}

// SettingsFromConfig 从配置构建流水线参数
func SettingsFromConfig(cfg *config.Config) Settings {
	clipSeconds := cfg.Pipeline.ClipSeconds
	if clipSeconds <= 0 {
		clipSeconds = storytools.DefaultClipSeconds
	}
	// max_retries 是首次调用之后的重试次数
	return Settings{
		ClipSeconds:  clipSeconds,
		RequestDelay: cfg.Pipeline.RequestDelay,
		LLMRetry:     retry.Policy{MaxAttempts: cfg.Pipeline.MaxRetries + 1, Backoff: cfg.Pipeline.RetryBackoff},
		TTSRetry:     retry.Policy{MaxAttempts: cfg.TTS.MaxRetries + 1, Backoff: cfg.Pipeline.RetryBackoff},
		Assets:       cfg.Assets.Enabled,
	}
}

func (s Settings) clipSeconds() int {
	if s.ClipSeconds <= 0 {
		return storytools.DefaultClipSeconds
	}
	return s.ClipSeconds
}
