package ark

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultVideoModel = "doubao-seedance-1-0-lite-i2v-250428"
	DefaultVideoRatio = "16:9"

	maxVideoSeconds = 12
)

// VideoConfig Ark 视频生成配置
type VideoConfig struct {
	APIKey       string        // API Key（必需）
	BaseURL      string        // API 基础 URL（可选）
	Model        string        // 模型名称（可选）
	Ratio        string        // 视频比例（可选，默认 16:9）
	PollInterval time.Duration // 轮询间隔（可选，默认 5s）
	MaxWait      time.Duration // 最长等待时间（可选，默认 30m）
}

// VideoClient Ark 图生视频客户端
// Go SDK 没有 contents/generations/tasks 接口，这里直接走 HTTP
// 参考: https://www.volcengine.com/docs/82379/1520757
type VideoClient struct {
	baseURL      string
	apiKey       string
	model        string
	ratio        string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

// NewVideoClient 创建 Ark 视频生成客户端
func NewVideoClient(cfg *VideoConfig) (*VideoClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ark API key is required for video generation")
	}

	c := &VideoClient{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		ratio:        cfg.Ratio,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		httpClient:   &http.Client{Timeout: 10 * time.Minute},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultVideoModel
	}
	if c.ratio == "" {
		c.ratio = DefaultVideoRatio
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 5 * time.Second
	}
	if c.maxWait <= 0 {
		c.maxWait = 30 * time.Minute
	}

	return c, nil
}

// GenerateVideoFromImage 从单张图片生成视频（同步等待）
//
// 流程：提交任务 -> 轮询任务状态 -> 下载视频
//
// Args:
//   - ctx: 上下文
//   - imageData: 首帧图片数据（jpeg）
//   - seconds: 视频时长（秒，最大 12 秒）
//   - prompt: 视频运动提示词
//
// Returns:
//   - []byte: 视频数据（mp4）
//   - error: 错误信息
func (c *VideoClient) GenerateVideoFromImage(ctx context.Context, imageData []byte, seconds int, prompt string) ([]byte, error) {
	if seconds > maxVideoSeconds {
		log.Warn().Int("requested", seconds).Int("limited", maxVideoSeconds).Msg("视频时长超过限制，已截断")
		seconds = maxVideoSeconds
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)
	taskID, err := c.createTask(ctx, imageURL, prompt, seconds)
	if err != nil {
		return nil, fmt.Errorf("create video task: %w", err)
	}

	log.Info().Str("task_id", taskID).Msg("视频生成任务提交成功")

	deadline := time.Now().Add(c.maxWait)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, videoURL, err := c.getTask(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("get video task: %w", err)
		}

		switch status {
		case "succeeded", "completed":
			if videoURL == "" {
				return nil, fmt.Errorf("video URL is empty, task_id=%s", taskID)
			}
			return c.download(ctx, videoURL)
		case "failed", "cancelled":
			return nil, fmt.Errorf("video task %s: task_id=%s", status, taskID)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("video generation timeout after %v, task_id=%s", c.maxWait, taskID)
		}

		log.Debug().Str("task_id", taskID).Str("status", status).Msg("视频生成中，继续等待")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

type videoTaskContent struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL map[string]string `json:"image_url,omitempty"`
}

type videoTaskRequest struct {
	Model     string             `json:"model"`
	Content   []videoTaskContent `json:"content"`
	Ratio     string             `json:"ratio"`
	Duration  int                `json:"duration"`
	Watermark bool               `json:"watermark"`
}

func (c *VideoClient) createTask(ctx context.Context, imageURL, prompt string, seconds int) (string, error) {
	body, err := json.Marshal(videoTaskRequest{
		Model: c.model,
		Content: []videoTaskContent{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: map[string]string{"url": imageURL}},
		},
		Ratio:    c.ratio,
		Duration: seconds,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/contents/generations/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var apiResp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, &apiResp); err != nil {
		return "", err
	}
	if apiResp.ID == "" {
		return "", fmt.Errorf("task ID is empty in response")
	}
	return apiResp.ID, nil
}

func (c *VideoClient) getTask(ctx context.Context, taskID string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/contents/generations/tasks/"+taskID, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var apiResp struct {
		Status  string `json:"status"`
		Content struct {
			VideoURL string `json:"video_url"`
		} `json:"content"`
	}
	if err := c.doJSON(req, &apiResp); err != nil {
		return "", "", err
	}
	return apiResp.Status, apiResp.Content.VideoURL, nil
}

func (c *VideoClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("url", req.URL.String()).
			Str("response_body", string(body)).
			Msg("API 请求失败")
		return fmt.Errorf("API request failed: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *VideoClient) download(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download video: status code %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
