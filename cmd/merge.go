package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyreel/internal/pkg/ffmpeg"
	storysvc "storyreel/internal/service/story"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Mix narration and sound effects onto a video clip",
	Long: `Mix a narration track and a sound-effect track onto a finished video clip with
ffmpeg. Both audio tracks are mixed at equal weight, the video stream is copied.
The equivalent shell command is saved next to the output as merge_cmd_NN.sh.`,
	Example: `  storyreel merge --video clip_01.mp4 --narration narration_01.mp3 --sfx sfx_01.mp3 --output final/clip_01.mp4 --scene 1`,
	RunE:    runMerge,
}

var concatCmd = &cobra.Command{
	Use:   "concat <clip>...",
	Short: "Join merged clips into one video",
	Long:  `Join merged clips in the given order with the ffmpeg concat demuxer (streams are copied).`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConcat,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(concatCmd)

	flags := mergeCmd.Flags()
	flags.String("video", "", "video clip")
	flags.String("narration", "", "narration audio")
	flags.String("sfx", "", "sound effects audio")
	flags.StringP("output", "o", "", "output file")
	flags.Int("scene", 0, "scene number, used to name merge_cmd_NN.sh")
	for _, name := range []string{"video", "narration", "sfx", "output"} {
		_ = mergeCmd.MarkFlagRequired(name)
	}

	concatCmd.Flags().StringP("output", "o", "", "output file")
	_ = concatCmd.MarkFlagRequired("output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	req := storysvc.MergeRequest{}
	req.Video, _ = flags.GetString("video")
	req.Narration, _ = flags.GetString("narration")
	req.SoundFX, _ = flags.GetString("sfx")
	req.Output, _ = flags.GetString("output")
	req.Scene, _ = flags.GetInt("scene")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	merger := storysvc.NewMerger(ffmpeg.NewClient(&GetConfig().FFmpeg))
	result, err := merger.MergeClip(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Output: %s\n", result.Output)
	fmt.Fprintf(out, "Merge script: %s\n", result.Script)
	fmt.Fprintf(out, "Video duration: %.2fs\n", result.VideoDuration)
	fmt.Fprintf(out, "Narration duration: %.2fs\n", result.NarrationDuration)
	fmt.Fprintf(out, "Sound effects duration: %.2fs\n", result.SoundFXDuration)
	return nil
}

func runConcat(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	merger := storysvc.NewMerger(ffmpeg.NewClient(&GetConfig().FFmpeg))
	if err := merger.Concat(ctx, args, output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Final video: %s (%d clips)\n", output, len(args))
	return nil
}
