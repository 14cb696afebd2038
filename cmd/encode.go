package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/smazurov/vidshrink/internal/config"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/logging"
	"github.com/smazurov/vidshrink/internal/planner"
	"github.com/spf13/cobra"
)

// CreateEncodeCmd creates the encode command.
func CreateEncodeCmd(bus *events.Bus) *cobra.Command {
	var videoPreset, audioPreset, output string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode a file to a planned preset",
		Long: `Probes the file, picks the requested video and audio presets from its plan and ` +
			`encodes it. The result is written next to the source as "output <name>" unless --out is given.`,
		Args: cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *config.Options) {
			logger := logging.GetLogger("cli")
			path := args[0]

			ws, err := openWorkspace(opts, bus, path)
			if err != nil {
				fatal(logger, "Failed to prepare workspace", err)
			}
			defer ws.cleanup()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			source, err := ws.session.Probe(ctx, ws.input)
			if err != nil {
				ws.cleanup()
				fatal(logger, "Failed to probe "+path, err)
			}
			target, err := planner.BuildPlan(source).Target(videoPreset, audioPreset)
			if err != nil {
				ws.cleanup()
				fatal(logger, "Invalid preset", err)
			}

			notes, err := ws.session.CheckEncoders(ctx)
			if err != nil {
				ws.cleanup()
				fatal(logger, "No usable encoder", err)
			}
			for _, note := range notes {
				fmt.Fprintln(os.Stderr, note)
			}

			var stop func(error)
			if !quiet {
				stop = trackProgress(bus, ws.input)
			}
			name, err := ws.session.Encode(ctx, source, target, ws.input)
			if stop != nil {
				stop(err)
			}
			if err != nil {
				ws.cleanup()
				fatal(logger, "Encode failed", err)
			}

			if output == "" {
				output = filepath.Join(filepath.Dir(path), ffmpeg.OutputName(filepath.Base(path)))
			}
			if err := ws.exportFile(name, output); err != nil {
				ws.cleanup()
				fatal(logger, "Failed to move output", err)
			}

			if st, err := os.Stat(output); err == nil {
				fmt.Printf("%s: %s (planned %s)\n", output, humanize.Bytes(uint64(st.Size())), sizeKB(target.Video.ExpectedSize))
			}
		}),
	}
	cmd.Flags().StringVar(&videoPreset, "video", "size_8mb", "Video preset from the plan")
	cmd.Flags().StringVar(&audioPreset, "audio", planner.AudioBitrateHigh, "Audio preset from the plan")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not draw a progress bar")
	return cmd
}

// trackProgress draws a progress bar on stderr from the encode events of
// input until the returned function is called with the encode result.
func trackProgress(bus *events.Bus, input string) func(error) {
	pw := progress.NewWriter()
	pw.SetOutputWriter(os.Stderr)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetTrackerLength(40)
	pw.SetStyle(progress.StyleDefault)

	tracker := &progress.Tracker{Message: "encoding " + input, Total: 100, Units: progress.UnitsDefault}
	pw.AppendTracker(tracker)
	go pw.Render()

	unsubscribe := bus.Subscribe(func(e events.EncodeProgressEvent) {
		if e.Input == input {
			tracker.SetValue(int64(e.Percent))
		}
	})

	return func(err error) {
		unsubscribe()
		if err != nil {
			tracker.MarkAsErrored()
		} else {
			tracker.SetValue(100)
			tracker.MarkAsDone()
		}
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	}
}
