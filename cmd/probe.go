package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/dustin/go-humanize"
	"github.com/smazurov/vidshrink/internal/config"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/logging"
	"github.com/smazurov/vidshrink/internal/media"
	"github.com/smazurov/vidshrink/internal/planner"
	"github.com/smazurov/vidshrink/internal/transcode"
	"github.com/spf13/cobra"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd(bus *events.Bus) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Print the container, video and audio metadata of a file",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *config.Options) {
			source := probeSource(cmd, opts, bus, args[0])
			if asJSON {
				printJSON(source)
				return
			}
			fmt.Println(formatTable(args[0], source))
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// CreatePlanCmd creates the plan command.
func CreatePlanCmd(bus *events.Bus) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "List the size, quality and audio presets available for a file",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *config.Options) {
			plan := planner.BuildPlan(probeSource(cmd, opts, bus, args[0]))
			if asJSON {
				printJSON(plan)
				return
			}
			fmt.Println(renderPlan(plan))
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of tables")
	return cmd
}

// probeSource probes path in a throwaway workspace and exits on failure.
func probeSource(cmd *cobra.Command, opts *config.Options, bus *events.Bus, path string) media.Format {
	logger := logging.GetLogger("cli")
	ws, err := openWorkspace(opts, bus, path)
	if err != nil {
		fatal(logger, "Failed to prepare workspace", err)
	}
	defer ws.cleanup()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	source, err := ws.session.Probe(ctx, ws.input)
	if err != nil {
		var perr *transcode.ProbeError
		if errors.As(err, &perr) && perr.Diagnostics != "" {
			fmt.Fprintln(os.Stderr, perr.Diagnostics)
		}
		ws.cleanup()
		fatal(logger, "Failed to probe "+path, err)
	}
	return source
}

func renderPlan(plan planner.Plan) string {
	headers := []string{"Preset", "Resolution", "FPS", "Rate", "Expected size", "Note"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}

	video := func(options []media.VideoFormat) [][]string {
		rows := make([][]string, 0, len(options))
		for _, v := range options {
			rows = append(rows, []string{
				v.Preset,
				dimensions(v.Width, v.Height),
				fpsString(v.FPS),
				videoRate(v),
				sizeKB(v.ExpectedSize),
				notes(v.Implausible, v.Original),
			})
		}
		return rows
	}

	audio := make([][]string, 0, len(plan.Audio))
	for _, a := range plan.Audio {
		if a.Preset == planner.AudioNone {
			audio = append(audio, []string{a.Preset, "-", "-", "-", "-", "drop audio"})
			continue
		}
		audio = append(audio, []string{
			a.Preset,
			a.Codec,
			fmt.Sprintf("%d Hz", a.SampleRate),
			kbps(a.Bitrate),
			sizeKB(a.ExpectedSize),
			notes(a.Implausible, a.Original),
		})
	}

	return renderTable("Size budgets", headers, video(plan.Size), aligns) + "\n" +
		renderTable("Quality", headers, video(plan.Quality), aligns) + "\n" +
		renderTable("Audio", []string{"Preset", "Codec", "Rate", "Bitrate", "Expected size", "Note"}, audio, aligns)
}

func fpsString(fps float64) string {
	if fps <= 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(fps, 3)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(logging.GetLogger("cli"), "Failed to encode JSON", err)
	}
}
