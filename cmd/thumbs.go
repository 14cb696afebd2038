package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/vidshrink/internal/config"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/logging"
	"github.com/smazurov/vidshrink/internal/thumbnails"
	"github.com/smazurov/vidshrink/internal/transcode"
	"github.com/spf13/cobra"
)

// CreateThumbsCmd creates the thumbs command.
func CreateThumbsCmd(bus *events.Bus) *cobra.Command {
	var outDir, sheet string
	var columns int

	cmd := &cobra.Command{
		Use:   "thumbs <file>",
		Short: "Extract preview frames and optionally a contact sheet",
		Long: `Extracts one frame every previews.interval_seconds, scaled to previews.width. ` +
			`Previews are advisory: a stalled extraction keeps the frames written so far.`,
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
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					ws.cleanup()
					fatal(logger, "Failed to create output directory", err)
				}
			}

			var frames []thumbnails.Frame
			for frame, err := range ws.session.Previews(ctx, ws.input, source.Container.Duration) {
				if err != nil {
					if !errors.Is(err, transcode.ErrPreviewStopped) {
						ws.cleanup()
						fatal(logger, "Preview extraction failed", err)
					}
					fmt.Fprintf(os.Stderr, "preview generation stopped after %d frames\n", len(frames))
					break
				}
				frames = append(frames, frame)
				if outDir != "" {
					if err := os.WriteFile(filepath.Join(outDir, frame.Name), frame.Data, 0o644); err != nil {
						ws.cleanup()
						fatal(logger, "Failed to write frame", err)
					}
				}
			}
			fmt.Printf("%d frames extracted\n", len(frames))

			if sheet == "" || len(frames) == 0 {
				return
			}
			if err := writeSheet(sheet, frames, columns, opts.PreviewsWidth); err != nil {
				ws.cleanup()
				fatal(logger, "Failed to write contact sheet", err)
			}
			fmt.Println(sheet)
		}),
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write frames to")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Write a contact sheet JPEG to this path")
	cmd.Flags().IntVar(&columns, "columns", thumbnails.DefaultSheetOptions.Columns, "Contact sheet columns")
	return cmd
}

func writeSheet(path string, frames []thumbnails.Frame, columns, width int) error {
	opts := thumbnails.DefaultSheetOptions
	if columns > 0 {
		opts.Columns = columns
	}
	if width > 0 {
		opts.TileWidth = width
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := thumbnails.WriteSheet(f, frames, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
