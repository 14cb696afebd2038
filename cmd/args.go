package cmd

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/vidshrink/internal/config"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/logging"
	"github.com/smazurov/vidshrink/internal/planner"
	"github.com/spf13/cobra"
)

// CreateArgsCmd creates the args command.
func CreateArgsCmd(bus *events.Bus) *cobra.Command {
	var videoPreset, audioPreset string

	cmd := &cobra.Command{
		Use:   "args <file>",
		Short: "Print the encoder command line for a preset pair without running it",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *config.Options) {
			logger := logging.GetLogger("cli")
			source := probeSource(cmd, opts, bus, args[0])

			target, err := planner.BuildPlan(source).Target(videoPreset, audioPreset)
			if err != nil {
				fatal(logger, "Invalid preset", err)
			}
			if target.Video.Implausible {
				logger.Warn("Target cannot be reached within its budget", "preset", videoPreset)
			}

			input := args[0]
			ffargs, err := ffmpeg.BuildTranscodeArgs(source, target, opts.TranscodeOptions(input))
			if err != nil {
				fatal(logger, "Failed to build encoder arguments", err)
			}
			fmt.Println(shellJoin(append([]string{opts.FfmpegBinary}, ffargs...)))
		}),
	}
	cmd.Flags().StringVar(&videoPreset, "video", "size_8mb", "Video preset from the plan")
	cmd.Flags().StringVar(&audioPreset, "audio", planner.AudioBitrateHigh, "Audio preset from the plan")
	return cmd
}
