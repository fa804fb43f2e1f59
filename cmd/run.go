package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storyreel/internal/pkg/id"
	storysvc "storyreel/internal/service/story"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Expand an idea into scenes, prompts and narration",
	Long: `Expand a story idea into fixed-length scenes, write image/video/sound-effect
prompts for every scene and synthesize the narration. Everything is written
under <output_dir>/<run_id>/.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()

	flags.StringP("idea", "i", "", "story idea (asked interactively when empty)")
	flags.Float64P("duration", "d", 0, "story duration in minutes (asked interactively when 0)")
	flags.String("run-id", "", "run directory name (default: timestamp based)")
	flags.BoolP("yes", "y", false, "skip the confirmation prompt")

	// Pipeline flags
	flags.String("output-dir", "output", "root directory for run outputs")
	flags.Int("clip-seconds", 8, "length of each clip in seconds")
	flags.Bool("assets", false, "also generate images and video clips with Ark")

	// Provider flags
	flags.String("ai-provider", "gemini", "AI provider (openai/azure/ark/gemini/ark-sdk)")
	flags.String("ai-model", "", "AI model name")
	flags.String("tts-provider", "gemini", "TTS provider (volcengine/gemini)")
	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")

	// Bind flags to viper
	_ = viper.BindPFlag("pipeline.output_dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("pipeline.clip_seconds", flags.Lookup("clip-seconds"))
	_ = viper.BindPFlag("assets.enabled", flags.Lookup("assets"))
	_ = viper.BindPFlag("ai.provider", flags.Lookup("ai-provider"))
	_ = viper.BindPFlag("ai.model", flags.Lookup("ai-model"))
	_ = viper.BindPFlag("tts.provider", flags.Lookup("tts-provider"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Validate config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	flags := cmd.Flags()
	idea, _ := flags.GetString("idea")
	minutes, _ := flags.GetFloat64("duration")
	runID, _ := flags.GetString("run-id")
	yes, _ := flags.GetBool("yes")

	// 交互提问之前先拒绝非法的运行ID
	if runID != "" && !id.IsValidRunID(runID) {
		return fmt.Errorf("invalid --run-id %q: %w", runID, storysvc.ErrInvalidRunID)
	}

	settings := storysvc.SettingsFromConfig(cfg)
	settings.RunID = runID

	idea, minutes, err := collectInput(cmd.InOrStdin(), cmd.OutOrStdout(), idea, minutes, settings.ClipSeconds, yes)
	if err != nil {
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Pipeline cancelled by user")
			return nil
		}
		return err
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("ai_provider", cfg.AI.Provider).
		Str("tts_provider", cfg.TTS.Provider).
		Str("storage", deps.Storage.GetStorageType()).
		Bool("assets", settings.Assets).
		Msg("starting storyreel")

	summary, err := storysvc.NewPipeline(deps, settings).Run(ctx, idea, minutes)
	if err != nil {
		if summary != nil {
			printSummary(cmd.OutOrStdout(), summary)
		}
		return err
	}

	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

// collectInput 补齐命令行缺失的想法和时长，并在开始前确认
func collectInput(in io.Reader, out io.Writer, idea string, minutes float64, clipSeconds int, yes bool) (string, float64, error) {
	p := newPrompter(in, out)
	interactive := idea == "" || minutes <= 0

	var err error
	if idea == "" {
		if idea, err = p.askIdea(); err != nil {
			return "", 0, fmt.Errorf("read story idea: %w", err)
		}
	}
	if minutes <= 0 {
		if minutes, err = p.askDuration(); err != nil {
			return "", 0, fmt.Errorf("read duration: %w", err)
		}
	}

	if yes || !interactive {
		return idea, minutes, nil
	}

	p.printBreakdown(idea, minutes, clipSeconds)
	ok, err := p.confirm("Proceed with this configuration? (yes/no): ")
	if err != nil {
		return "", 0, fmt.Errorf("read confirmation: %w", err)
	}
	if !ok {
		return "", 0, errCancelled
	}
	return idea, minutes, nil
}

func printSummary(out io.Writer, s *storysvc.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run: %s\n", s.RunID)
	fmt.Fprintf(out, "Scenes: %d\n", s.Scenes)
	if s.StoryLocation != "" {
		fmt.Fprintf(out, "Story structure: %s\n", s.StoryLocation)
	}
	if s.PromptsLocation != "" {
		fmt.Fprintf(out, "Scene prompts: %s\n", s.PromptsLocation)
	}
	fmt.Fprintf(out, "Prompt files: %d (template fallback scenes: %d)\n", len(s.PromptFiles), s.PromptFallbacks)
	fmt.Fprintf(out, "Narration audio: %d\n", len(s.AudioFiles))
	if len(s.FallbackFiles) > 0 {
		fmt.Fprintf(out, "Narration text fallbacks: %d\n", len(s.FallbackFiles))
		for _, f := range s.FallbackFiles {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}
	if s.Images > 0 || s.Videos > 0 {
		fmt.Fprintf(out, "Images: %d, Videos: %d\n", s.Images, s.Videos)
	}
}
