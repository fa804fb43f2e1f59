package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storyreel/internal/config"
	"storyreel/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "storyreel",
	Short: "StoryReel - turn a one-line idea into a narrated video story",
	Long: `StoryReel expands a short story idea into fixed-length scenes,
writes image/video/sound-effect prompts for each scene, synthesizes the
narration, and merges finished clips with ffmpeg.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 中的密钥以环境变量的形式生效，文件不存在时忽略
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.storyreel")
	}

	// 环境变量设置
	viper.SetEnvPrefix("STORYREEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}
	applyDerivedDefaults(cfg)

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Pipeline
	viper.SetDefault("pipeline.output_dir", "output")
	viper.SetDefault("pipeline.clip_seconds", 8)
	viper.SetDefault("pipeline.request_delay", "2s")
	viper.SetDefault("pipeline.max_retries", 2)
	viper.SetDefault("pipeline.retry_backoff", "2s")

	// AI
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.base_url", "")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 8192)
	viper.SetDefault("ai.options.top_p", 1.0)

	// TTS
	viper.SetDefault("tts.provider", "gemini")
	viper.SetDefault("tts.api_key", "")
	viper.SetDefault("tts.access_token", "")
	viper.SetDefault("tts.app_id", "")
	viper.SetDefault("tts.voice", "")
	viper.SetDefault("tts.model", "")
	viper.SetDefault("tts.max_retries", 2)

	// Assets
	viper.SetDefault("assets.enabled", false)
	viper.SetDefault("assets.api_key", "")

	// FFmpeg
	viper.SetDefault("ffmpeg.ffmpeg_path", "")
	viper.SetDefault("ffmpeg.ffprobe_path", "")

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stderr")
	viper.SetDefault("log.time_format", "RFC3339")

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "")
	viper.SetDefault("storage.local.base_url", "")
}

// applyDerivedDefaults 依赖其他配置项的默认值
func applyDerivedDefaults(c *config.Config) {
	if c.Storage.Local == nil {
		c.Storage.Local = &config.LocalConfig{}
	}
	if c.Storage.Local.BasePath == "" {
		c.Storage.Local.BasePath = c.Pipeline.OutputDir
	}
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
