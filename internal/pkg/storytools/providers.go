package storytools

import "context"

// LLMProvider 定义了调用大模型的接口
// 具体的「如何调用大模型」由调用方通过实现此接口注入，方便单测和替换实现
type LLMProvider interface {
	// Generate 根据提示词生成文本
	Generate(ctx context.Context, prompt string) (string, error)
}

// SpeechRequest 一次旁白合成请求
type SpeechRequest struct {
	Text   string // 旁白原文（只接受纯文本的 TTS 使用）
	Prompt string // 带语气指令的完整提示词（支持指令的 TTS 使用）
}

// SpeechResult TTS 生成结果
// 接口调用成功但没有返回音频时 AudioData 为空
type SpeechResult struct {
	AudioData []byte  // 音频数据
	Format    string  // 文件扩展名: mp3 / wav
	Duration  float64 // 音频时长（秒，未知时为 0）
}

// HasAudio 是否带有音频数据
func (r *SpeechResult) HasAudio() bool {
	return r != nil && len(r.AudioData) > 0
}

// TTSProvider TTS 提供者接口（用于单测/替换实现）
type TTSProvider interface {
	// Synthesize 合成一段旁白
	//
	// Returns:
	//   - result: 生成结果，AudioData 为空表示接口没有返回音频
	//   - err: 传输或接口错误（可重试）
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}

// ImageProvider 图片生成提供者接口
type ImageProvider interface {
	// GenerateImage 根据提示词生成图片，返回图片二进制数据
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// VideoProvider 图生视频提供者接口
type VideoProvider interface {
	// GenerateVideo 以图片为首帧生成指定时长的视频，返回视频二进制数据
	GenerateVideo(ctx context.Context, image []byte, prompt string, seconds int) ([]byte, error)
}
