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

	"storyreel/internal/pkg/id"
)

const (
	DefaultVolcengineAPIURL  = "https://openspeech.bytedance.com/api/v1/tts"
	DefaultVolcengineCluster = "volcano_tts"
	DefaultVolcengineVoice   = "BV115_streaming"

	volcengineSuccessCode = 3000
)

// VolcengineConfig 火山引擎 TTS 配置
type VolcengineConfig struct {
	APIURL      string  // API 地址，默认: https://openspeech.bytedance.com/api/v1/tts
	AccessToken string  // 访问令牌（必需）
	AppID       string  // 应用ID（可选）
	Cluster     string  // 集群名称，默认: volcano_tts
	VoiceType   string  // 语音类型，默认: BV115_streaming
	SampleRate  int     // 采样率，默认: 44100
	SpeedRatio  float64 // 语速，默认: 1.0
	Language    string  // 语言，默认: en
}

// VolcengineClient 火山引擎 TTS 客户端
// 参考: https://openspeech.bytedance.com/api/v1/tts
type VolcengineClient struct {
	cfg        VolcengineConfig
	httpClient *http.Client
}

// NewVolcengineClient 创建火山引擎 TTS 客户端
func NewVolcengineClient(cfg VolcengineConfig) (*VolcengineClient, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("TTS access token is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultVolcengineAPIURL
	}
	if cfg.Cluster == "" {
		cfg.Cluster = DefaultVolcengineCluster
	}
	if cfg.VoiceType == "" {
		cfg.VoiceType = DefaultVolcengineVoice
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.SpeedRatio == 0 {
		cfg.SpeedRatio = 1.0
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	return &VolcengineClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Synthesize 合成一段语音
// 业务码 3000 但没有 data 字段时返回空 Result（无音频），不视为错误
func (c *VolcengineClient) Synthesize(ctx context.Context, text string) (*Result, error) {
	requestID := id.New()
	reqBody, err := json.Marshal(c.buildRequest(text, requestID))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// 火山引擎要求 "Bearer;" 加分号的格式
	req.Header.Set("Authorization", fmt.Sprintf("Bearer; %s", c.cfg.AccessToken))
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("request_id", requestID).
		Int("text_len", len([]rune(text))).
		Msg("sending volcengine TTS request")

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

	var apiResp volcengineResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if apiResp.Code != volcengineSuccessCode {
		message := apiResp.Message
		if message == "" {
			message = "unknown error"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: apiResp.Code, Message: message}
	}

	result := &Result{
		Format:     "mp3",
		SampleRate: c.cfg.SampleRate,
		Duration:   apiResp.Addition.durationSeconds(),
	}
	if apiResp.Data == "" {
		return result, nil
	}

	audioData, err := base64.StdEncoding.DecodeString(apiResp.Data)
	if err != nil {
		return nil, fmt.Errorf("decode audio data: %w", err)
	}
	result.AudioData = audioData

	return result, nil
}

type volcengineResponse struct {
	ReqID    string             `json:"reqid"`
	Code     int                `json:"code"`
	Message  string             `json:"message"`
	Data     string             `json:"data"`
	Addition volcengineAddition `json:"addition"`
}

type volcengineAddition struct {
	// duration 单位毫秒，接口可能返回字符串或数字
	Duration json.RawMessage `json:"duration"`
}

func (a volcengineAddition) durationSeconds() float64 {
	raw := strings.Trim(string(a.Duration), `"`)
	if raw == "" {
		return 0
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return ms / 1000.0
}

// buildRequest 构建请求体
// 参考官方文档: https://openspeech.bytedance.com/api/v1/tts
func (c *VolcengineClient) buildRequest(text, requestID string) map[string]any {
	app := map[string]any{
		"token":   c.cfg.AccessToken,
		"cluster": c.cfg.Cluster,
	}
	if c.cfg.AppID != "" {
		app["appid"] = c.cfg.AppID
	}

	return map[string]any{
		"app":  app,
		"user": map[string]any{"uid": requestID},
		"audio": map[string]any{
			"voice_type":   c.cfg.VoiceType,
			"encoding":     "mp3",
			"rate":         c.cfg.SampleRate,
			"speed_ratio":  c.cfg.SpeedRatio,
			"volume_ratio": 1.0,
			"pitch_ratio":  1.0,
			"language":     c.cfg.Language,
		},
		"request": map[string]any{
			"reqid":     requestID,
			"text":      text,
			"text_type": "plain",
			"operation": "query",
		},
	}
}
