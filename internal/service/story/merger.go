package story

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"storyreel/internal/pkg/ffmpeg"
)

// MergeRequest 单个片段的合并输入，均为本地文件路径
type MergeRequest struct {
	Video     string // 视频片段
	Narration string // 旁白音频
	SoundFX   string // 音效音频
	Output    string // 输出文件
	Scene     int    // 场景编号，用于命名 merge_cmd_NN.sh；为 0 时使用输出文件名
}

// MergeResult 合并结果
type MergeResult struct {
	Output            string  // 输出文件
	Script            string  // 可手动重新执行的合并脚本
	VideoDuration     float64 // 输出视频时长（秒，探测失败时为 0）
	NarrationDuration float64 // 旁白时长
	SoundFXDuration   float64 // 音效时长
}

// Merger 调用 ffmpeg 把旁白和音效混合到视频片段上
// 除了 ffmpeg 的退出码，不做额外的错误处理
type Merger struct {
	ffmpeg *ffmpeg.Client
}

// NewMerger 创建合并器
func NewMerger(client *ffmpeg.Client) *Merger {
	return &Merger{ffmpeg: client}
}

// MergeClip 合并单个片段：两路音频等权混合（时长取最长），视频流直接复制
func (m *Merger) MergeClip(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	if req.Output == "" {
		return nil, errors.New("output path is required")
	}
	if err := checkInputs(req.Video, req.Narration, req.SoundFX); err != nil {
		return nil, err
	}
	// 旁白只有文本降级文件时无法合并
	if strings.EqualFold(filepath.Ext(req.Narration), ".txt") {
		return nil, fmt.Errorf("%w: %s is a text fallback, synthesize the narration first", ErrMissingAudio, req.Narration)
	}

	outputDir := filepath.Dir(req.Output)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	input := ffmpeg.MixInput{
		Video:     req.Video,
		Narration: req.Narration,
		SoundFX:   req.SoundFX,
		Output:    req.Output,
	}

	// 先写脚本，ffmpeg 失败时也可以手动排查
	script := filepath.Join(outputDir, scriptName(req))
	content := "#!/bin/sh\n" + m.ffmpeg.ShellCommand(ffmpeg.MixNarrationArgs(input)) + "\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		return nil, fmt.Errorf("write merge script: %w", err)
	}

	if err := m.ffmpeg.MixNarration(ctx, input); err != nil {
		return nil, err
	}

	result := &MergeResult{Output: req.Output, Script: script}
	if info, err := m.ffmpeg.GetVideoInfo(ctx, req.Output); err == nil {
		result.VideoDuration = info.Duration
	} else {
		log.Warn().Err(err).Str("output", req.Output).Msg("探测输出视频失败")
	}
	if info, err := m.ffmpeg.GetAudioInfo(ctx, req.Narration); err == nil {
		result.NarrationDuration = info.Duration
	}
	if info, err := m.ffmpeg.GetAudioInfo(ctx, req.SoundFX); err == nil {
		result.SoundFXDuration = info.Duration
	}

	log.Info().
		Str("output", result.Output).
		Float64("video_duration", result.VideoDuration).
		Float64("narration_duration", result.NarrationDuration).
		Float64("sound_fx_duration", result.SoundFXDuration).
		Msg("片段合并完成")

	return result, nil
}

// Concat 使用 concat demuxer 把已合并的片段拼接成完整视频（-c copy）
func (m *Merger) Concat(ctx context.Context, clips []string, output string) error {
	if len(clips) == 0 {
		return fmt.Errorf("%w: no clips to concat", ErrMissingInput)
	}
	if err := checkInputs(clips...); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return m.ffmpeg.ConcatVideos(ctx, clips, output)
}

func checkInputs(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			return fmt.Errorf("%w: empty path", ErrMissingInput)
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrMissingInput, p)
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrMissingInput, p)
		}
	}
	return nil
}

func scriptName(req MergeRequest) string {
	if req.Scene > 0 {
		return fmt.Sprintf("merge_cmd_%02d.sh", req.Scene)
	}
	base := strings.TrimSuffix(filepath.Base(req.Output), filepath.Ext(req.Output))
	return fmt.Sprintf("merge_cmd_%s.sh", base)
}
