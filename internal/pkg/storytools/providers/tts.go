package providers

import (
	"context"
	"fmt"

	"storyreel/internal/pkg/storytools"
	"storyreel/internal/pkg/tts"
)

// VolcengineTTSProvider 火山引擎 TTS 提供者
// 火山引擎只接受纯文本，语气指令通过音色和语速配置体现
type VolcengineTTSProvider struct {
	client *tts.VolcengineClient
}

// NewVolcengineTTSProvider 创建火山引擎 TTS 提供者
func NewVolcengineTTSProvider(client *tts.VolcengineClient) *VolcengineTTSProvider {
	return &VolcengineTTSProvider{client: client}
}

// Synthesize 合成旁白（使用 req.Text）
func (p *VolcengineTTSProvider) Synthesize(ctx context.Context, req storytools.SpeechRequest) (*storytools.SpeechResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("volcengine TTS client is required")
	}
	result, err := p.client.Synthesize(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	return toSpeechResult(result), nil
}

// GeminiTTSProvider Gemini TTS 提供者
// Gemini 支持自然语言朗读指令，直接发送带语气指令的完整提示词
type GeminiTTSProvider struct {
	client *tts.GeminiClient
}

// NewGeminiTTSProvider 创建 Gemini TTS 提供者
func NewGeminiTTSProvider(client *tts.GeminiClient) *GeminiTTSProvider {
	return &GeminiTTSProvider{client: client}
}

// Synthesize 合成旁白（优先使用 req.Prompt）
func (p *GeminiTTSProvider) Synthesize(ctx context.Context, req storytools.SpeechRequest) (*storytools.SpeechResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("gemini TTS client is required")
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = req.Text
	}
	result, err := p.client.Synthesize(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return toSpeechResult(result), nil
}

func toSpeechResult(result *tts.Result) *storytools.SpeechResult {
	if result == nil {
		return &storytools.SpeechResult{}
	}
	return &storytools.SpeechResult{
		AudioData: result.AudioData,
		Format:    result.Format,
		Duration:  result.Duration,
	}
}
