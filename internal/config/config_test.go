package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func validConfig() *Config {
	return &Config{
		AI:  AIConfig{Provider: "gemini"},
		TTS: TTSConfig{Provider: "volcengine", MaxRetries: 3},
		Pipeline: PipelineConfig{
			OutputDir:    "output",
			ClipSeconds:  8,
			RequestDelay: 2 * time.Second,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
		},
		Storage: StorageConfig{Type: "local", Local: &LocalConfig{BasePath: "output"}},
	}
}

func TestConfig_Validate(t *testing.T) {
	Convey("配置校验", t, func() {
		Convey("默认配置有效", func() {
			So(validConfig().Validate(), ShouldBeNil)
		})

		tests := []struct {
			name   string
			mutate func(c *Config)
			errMsg string
		}{
			{"片段时长为 0", func(c *Config) { c.Pipeline.ClipSeconds = 0 }, "clip_seconds"},
			{"重试次数为负数", func(c *Config) { c.Pipeline.MaxRetries = -1 }, "pipeline.max_retries"},
			{"负的请求间隔", func(c *Config) { c.Pipeline.RequestDelay = -time.Second }, "delays"},
			{"未知的 AI provider", func(c *Config) { c.AI.Provider = "anthropic" }, "ai.provider"},
			{"未知的 TTS provider", func(c *Config) { c.TTS.Provider = "polly" }, "tts.provider"},
			{"TTS 重试次数为负数", func(c *Config) { c.TTS.MaxRetries = -1 }, "tts.max_retries"},
			{"OSS 缺少 bucket", func(c *Config) { c.Storage = StorageConfig{Type: "oss", OSS: &OSSConfig{}} }, "bucket"},
			{"未知的存储类型", func(c *Config) { c.Storage.Type = "s3" }, "storage.type"},
		}

		for _, tt := range tests {
			Convey(tt.name, func() {
				c := validConfig()
				tt.mutate(c)
				err := c.Validate()
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, tt.errMsg)
			})
		}

		Convey("重试次数为 0 表示只调用一次", func() {
			c := validConfig()
			c.Pipeline.MaxRetries = 0
			c.TTS.MaxRetries = 0
			So(c.Validate(), ShouldBeNil)
		})

		Convey("ark-sdk 和 OSS 配置有效", func() {
			c := validConfig()
			c.AI.Provider = "ark-sdk"
			c.Storage = StorageConfig{Type: "oss", OSS: &OSSConfig{Bucket: "reels"}}
			So(c.Validate(), ShouldBeNil)
		})
	})
}
