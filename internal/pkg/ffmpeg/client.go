package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"storyreel/internal/config"
	"storyreel/internal/pkg/id"
)

// Client FFmpeg 客户端
// 用于封装 FFmpeg 命令调用
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
}

// NewClient 创建 FFmpeg 客户端
// 路径优先取配置，其次取环境变量 FFMPEG_PATH / FFPROBE_PATH
func NewClient(cfg *config.FFmpegConfig) *Client {
	var ffmpegPath, ffprobePath string
	if cfg != nil {
		ffmpegPath = cfg.FFmpegPath
		ffprobePath = cfg.FFprobePath
	}

	if ffmpegPath == "" {
		ffmpegPath = os.Getenv("FFMPEG_PATH")
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	if ffprobePath == "" {
		ffprobePath = os.Getenv("FFPROBE_PATH")
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// VideoInfo 视频信息
type VideoInfo struct {
	Width    int     // 宽度
	Height   int     // 高度
	FPS      float64 // 帧率
	Duration float64 // 时长（秒）
}

// AudioInfo 音频信息
type AudioInfo struct {
	Duration float64 // 时长（秒）
}

type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetVideoInfo 获取视频信息
func (c *Client) GetVideoInfo(ctx context.Context, videoPath string) (*VideoInfo, error) {
	// ffprobe -v error -select_streams v:0 -show_entries stream=width,height,r_frame_rate -show_entries format=duration -of json video.mp4
	probe, err := c.probe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return nil, err
	}

	info := &VideoInfo{Duration: parseFloat(probe.Format.Duration)}
	if len(probe.Streams) > 0 {
		stream := probe.Streams[0]
		info.Width = stream.Width
		info.Height = stream.Height
		// r_frame_rate 格式: "30000/1001"
		if num, den, ok := strings.Cut(stream.RFrameRate, "/"); ok {
			if d := parseFloat(den); d > 0 {
				info.FPS = parseFloat(num) / d
			}
		}
	}

	return info, nil
}

// GetAudioInfo 获取音频信息
func (c *Client) GetAudioInfo(ctx context.Context, audioPath string) (*AudioInfo, error) {
	probe, err := c.probe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		audioPath,
	)
	if err != nil {
		return nil, err
	}

	return &AudioInfo{Duration: parseFloat(probe.Format.Duration)}, nil
}

func (c *Client) probe(ctx context.Context, args ...string) (*probeOutput, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &probe, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// MixInput 旁白混音输入
type MixInput struct {
	Video     string // 视频片段（保留视频流）
	Narration string // 旁白音频
	SoundFX   string // 音效音频
	Output    string // 输出文件
}

// MixNarrationArgs 构建旁白 + 音效混音参数
// 两路音频等权混合，时长取最长，视频流直接复制
func MixNarrationArgs(in MixInput) []string {
	return []string{
		"-y",
		"-i", in.Video,
		"-i", in.Narration,
		"-i", in.SoundFX,
		"-filter_complex", "[1:a][2:a]amix=inputs=2:duration=longest[aout]",
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		in.Output,
	}
}

// MixNarration 把旁白和音效混合到视频片段上
func (c *Client) MixNarration(ctx context.Context, in MixInput) error {
	if err := c.run(ctx, MixNarrationArgs(in)); err != nil {
		return fmt.Errorf("ffmpeg mix narration failed: %w", err)
	}

	log.Info().
		Str("video", in.Video).
		Str("narration", in.Narration).
		Str("sound_fx", in.SoundFX).
		Str("output", in.Output).
		Msg("旁白混音成功")

	return nil
}

// ConcatVideos 合并多个视频文件
// 使用 concat demuxer（需要创建 concat list 文件）
func (c *Client) ConcatVideos(ctx context.Context, videoPaths []string, outputPath string) error {
	if len(videoPaths) == 0 {
		return fmt.Errorf("no videos to concat")
	}

	concatListFile := filepath.Join(filepath.Dir(outputPath), fmt.Sprintf("concat_list_%s.txt", id.New()))
	var list strings.Builder
	for _, videoPath := range videoPaths {
		absPath, err := filepath.Abs(videoPath)
		if err != nil {
			return fmt.Errorf("get absolute path: %w", err)
		}
		// concat 列表中单引号需要转义为 '\''
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(absPath, "'", `'\''`))
	}
	if err := os.WriteFile(concatListFile, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(concatListFile)

	// ffmpeg -f concat -safe 0 -i concat_list.txt -c copy output.mp4
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListFile,
		"-c", "copy",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}

	log.Info().
		Int("count", len(videoPaths)).
		Str("output", outputPath).
		Msg("视频合并成功")

	return nil
}

// ShellCommand 渲染可直接在 shell 中执行的 ffmpeg 命令
func (c *Client) ShellCommand(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(c.ffmpegPath))
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r == '-' || r == '_' || r == '.' || r == '/' || r == ':' || r == '=' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// run 执行 ffmpeg，失败时把 stderr 末尾附在错误里
func (c *Client) run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stderr = &stderr

	log.Debug().Str("cmd", c.ShellCommand(args)).Msg("running ffmpeg")

	if err := cmd.Run(); err != nil {
		if tail := lastLines(stderr.String(), 5); tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
