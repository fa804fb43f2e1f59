package config

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	AI       AIConfig       `mapstructure:"ai"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	FFmpeg   FFmpegConfig   `mapstructure:"ffmpeg"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// AIConfig 文本大模型配置
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai, azure, ark, gemini, ark-sdk
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// TTSConfig 语音合成配置
type TTSConfig struct {
	Provider    string  `mapstructure:"provider"`     // volcengine, gemini
	APIURL      string  `mapstructure:"api_url"`      // 接口地址（为空时使用各 provider 默认值）
	APIKey      string  `mapstructure:"api_key"`      // gemini API Key
	AccessToken string  `mapstructure:"access_token"` // 火山引擎访问令牌
	AppID       string  `mapstructure:"app_id"`       // 火山引擎应用ID
	Cluster     string  `mapstructure:"cluster"`      // 火山引擎集群名称
	Voice       string  `mapstructure:"voice"`        // 音色（volcengine voice_type / gemini voiceName）
	Model       string  `mapstructure:"model"`        // gemini TTS 模型
	SampleRate  int     `mapstructure:"sample_rate"`
	SpeedRatio  float64 `mapstructure:"speed_ratio"`
	Temperature float64 `mapstructure:"temperature"`
	MaxRetries  int     `mapstructure:"max_retries"` // 失败后的重试次数（不含首次调用）
}

// AssetsConfig 图片/视频素材生成配置（Ark）
type AssetsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	ImageModel string `mapstructure:"image_model"`
	VideoModel string `mapstructure:"video_model"`
	ImageSize  string `mapstructure:"image_size"`
	VideoRatio string `mapstructure:"video_ratio"`
}

// PipelineConfig 流水线配置
type PipelineConfig struct {
	OutputDir    string        `mapstructure:"output_dir"`    // 输出根目录，每次运行在其下创建 run 目录
	ClipSeconds  int           `mapstructure:"clip_seconds"`  // 单个片段时长（秒）
	RequestDelay time.Duration `mapstructure:"request_delay"` // 两次 API 调用之间的固定间隔
	MaxRetries   int           `mapstructure:"max_retries"`   // 文本模型失败后的重试次数（不含首次调用）
	RetryBackoff time.Duration `mapstructure:"retry_backoff"` // 线性退避基数
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 为空时使用 pipeline.output_dir
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	Prefix          string `mapstructure:"prefix"`            // 对象 key 前缀
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Pipeline.ClipSeconds <= 0 {
		return errors.New("pipeline.clip_seconds must be positive")
	}
	if c.Pipeline.MaxRetries < 0 {
		return errors.New("pipeline.max_retries must not be negative")
	}
	if c.Pipeline.RequestDelay < 0 || c.Pipeline.RetryBackoff < 0 {
		return errors.New("pipeline delays must not be negative")
	}

	validAI := map[string]bool{"openai": true, "azure": true, "ark": true, "gemini": true, "ark-sdk": true}
	if !validAI[c.AI.Provider] {
		return fmt.Errorf("invalid ai.provider %q, must be openai/azure/ark/gemini/ark-sdk", c.AI.Provider)
	}

	validTTS := map[string]bool{"volcengine": true, "gemini": true}
	if !validTTS[c.TTS.Provider] {
		return fmt.Errorf("invalid tts.provider %q, must be volcengine/gemini", c.TTS.Provider)
	}
	if c.TTS.MaxRetries < 0 {
		return errors.New("tts.max_retries must not be negative")
	}

	switch c.Storage.Type {
	case "local":
	case "oss":
		if c.Storage.OSS == nil || c.Storage.OSS.Bucket == "" {
			return errors.New("storage.oss.bucket is required for oss storage")
		}
	default:
		return fmt.Errorf("invalid storage.type %q, must be local/oss", c.Storage.Type)
	}

	return nil
}
