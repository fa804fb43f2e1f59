package story

import "time"

// NarrationStatus 旁白生成结果
type NarrationStatus string

const (
	NarrationPending  NarrationStatus = "pending"  // 尚未生成
	NarrationAudio    NarrationStatus = "audio"    // 已生成音频
	NarrationFallback NarrationStatus = "fallback" // 没有音频，已写入文本降级文件
)

// Story 一次运行的故事
// 场景在扩写时一次性创建，之后不会合并或拆分
type Story struct {
	RunID                string    `json:"run_id"`                 // 运行ID，同时是输出子目录名
	Idea                 string    `json:"original_idea"`          // 用户输入的故事想法
	DurationMinutes      float64   `json:"duration_minutes"`       // 请求的总时长（分钟）
	ClipSeconds          int       `json:"clip_seconds"`           // 单个片段时长（秒）
	NumClips             int       `json:"num_clips"`              // 场景数
	TotalDurationSeconds int       `json:"total_duration_seconds"` // 场景数 × 片段时长
	Scenes               []*Scene  `json:"scenes"`
	CreatedAt            time.Time `json:"created_at"`
}

// Scene 单个场景，对应一个固定时长的视频片段
type Scene struct {
	Number      int    `json:"scene_number"` // 从 1 开始
	Title       string `json:"title"`
	Description string `json:"description"`

	// 制作提示词
	ImagePrompt   string `json:"image_prompt,omitempty"`
	VideoPrompt   string `json:"video_prompt,omitempty"`
	SoundFXPrompt string `json:"sound_fx_prompt,omitempty"`
	// PromptsFallback 为 true 表示提示词来自模板而不是模型
	PromptsFallback bool `json:"prompts_fallback,omitempty"`

	// 旁白
	NarrationText           string          `json:"narration_text,omitempty"`
	NarrationVoiceDirection string          `json:"narration_voice_direction,omitempty"`
	NarrationStatus         NarrationStatus `json:"narration_status,omitempty"`
	NarrationAudioKey       string          `json:"narration_audio,omitempty"`    // 音频文件 key
	NarrationFallbackKey    string          `json:"narration_fallback,omitempty"` // 文本降级文件 key

	// 可选素材阶段
	ImageKey string `json:"image,omitempty"`
	VideoKey string `json:"video,omitempty"`
}

// HasPrompts 是否已生成制作提示词
func (s *Scene) HasPrompts() bool {
	return s.ImagePrompt != "" && s.VideoPrompt != "" && s.SoundFXPrompt != ""
}
