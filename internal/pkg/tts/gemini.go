package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultGeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel  = "gemini-2.5-flash-preview-tts"
	DefaultGeminiVoice  = "Kore"

	geminiDefaultSampleRate = 24000
)

// GeminiConfig Gemini TTS 配置
type GeminiConfig struct {
	APIURL      string  // API 根地址，默认: https://generativelanguage.googleapis.com/v1beta
	APIKey      string  // API Key（必需）
	Model       string  // 模型，默认: gemini-2.5-flash-preview-tts
	Voice       string  // 预置音色，默认: Kore
	Temperature float64 // 采样温度，默认: 0.7
}

// GeminiClient Gemini TTS 客户端（generateContent + AUDIO 响应模态）
// 返回的 inlineData 为 16bit 单声道 PCM，这里封装成 WAV
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

// NewGeminiClient 创建 Gemini TTS 客户端
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultGeminiAPIURL
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultGeminiVoice
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	return &GeminiClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature        float64            `json:"temperature"`
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// Synthesize 合成一段语音，prompt 可以包含语气/节奏等朗读指令
// 响应中没有 inlineData 时返回空 Result（无音频），不视为错误
func (c *GeminiClient) Synthesize(ctx context.Context, prompt string) (*Result, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:        c.cfg.Temperature,
			ResponseModalities: []string{"AUDIO"},
		},
	}
	body.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = c.cfg.Voice

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.APIURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	log.Debug().Str("model", c.cfg.Model).Str("voice", c.cfg.Voice).Msg("sending gemini TTS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	for _, candidate := range apiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			return decodeInlineAudio(part.InlineData)
		}
	}

	log.Debug().Int("candidates", len(apiResp.Candidates)).Msg("gemini TTS response has no inline audio")
	return &Result{Format: "wav", SampleRate: geminiDefaultSampleRate}, nil
}

// decodeInlineAudio 解码 inlineData；audio/L16、audio/pcm 封装成 WAV，其他格式按子类型原样保存
func decodeInlineAudio(data *geminiInlineData) (*Result, error) {
	raw, err := base64.StdEncoding.DecodeString(data.Data)
	if err != nil {
		return nil, fmt.Errorf("decode audio data: %w", err)
	}

	mimeType, params := parseMimeType(data.MimeType)
	switch mimeType {
	case "audio/l16", "audio/pcm":
		rate := geminiDefaultSampleRate
		if v, err := strconv.Atoi(params["rate"]); err == nil && v > 0 {
			rate = v
		}
		return &Result{
			AudioData:  WrapPCM16(raw, rate, 1),
			Format:     "wav",
			SampleRate: rate,
			Duration:   float64(len(raw)) / float64(rate*2),
		}, nil
	case "audio/mpeg", "audio/mp3":
		return &Result{AudioData: raw, Format: "mp3"}, nil
	case "audio/wav", "audio/x-wav":
		return &Result{AudioData: raw, Format: "wav"}, nil
	default:
		format := strings.TrimPrefix(mimeType, "audio/")
		if format == "" || format == mimeType {
			format = "bin"
		}
		return &Result{AudioData: raw, Format: format}, nil
	}
}

// parseMimeType 解析 "audio/L16;codec=pcm;rate=24000"
func parseMimeType(value string) (string, map[string]string) {
	parts := strings.Split(value, ";")
	params := make(map[string]string, len(parts))
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok {
			params[strings.ToLower(k)] = v
		}
	}
	return strings.ToLower(strings.TrimSpace(parts[0])), params
}
