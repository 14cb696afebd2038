package thumbnails

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// ErrNoFrames is returned when a contact sheet has nothing to render.
var ErrNoFrames = errors.New("no frames to render")

// SheetOptions describes the contact sheet grid.
type SheetOptions struct {
	Columns   int
	TileWidth int
	Gap       int
}

// DefaultSheetOptions lays frames out four across at 320 px.
var DefaultSheetOptions = SheetOptions{Columns: 4, TileWidth: 320, Gap: 4}

// ContactSheet tiles frames into a grid, left to right then top to bottom.
// Tiles keep the aspect ratio of the first frame.
func ContactSheet(frames []Frame, opts SheetOptions) (image.Image, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if opts.Columns <= 0 {
		opts.Columns = DefaultSheetOptions.Columns
	}
	if opts.TileWidth <= 0 {
		opts.TileWidth = DefaultSheetOptions.TileWidth
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}

	tiles := make([]image.Image, 0, len(frames))
	for _, f := range frames {
		img, err := imaging.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.Name, err)
		}
		tiles = append(tiles, img)
	}

	first := tiles[0].Bounds()
	tileHeight := max(opts.TileWidth*first.Dy()/max(first.Dx(), 1), 1)
	cols := min(opts.Columns, len(tiles))
	rows := (len(tiles) + cols - 1) / cols

	width := cols*opts.TileWidth + (cols+1)*opts.Gap
	height := rows*tileHeight + (rows+1)*opts.Gap
	sheet := imaging.New(width, height, color.Black)

	for i, img := range tiles {
		tile := imaging.Fill(img, opts.TileWidth, tileHeight, imaging.Center, imaging.Lanczos)
		x := opts.Gap + (i%cols)*(opts.TileWidth+opts.Gap)
		y := opts.Gap + (i/cols)*(tileHeight+opts.Gap)
		sheet = imaging.Paste(sheet, tile, image.Pt(x, y))
	}
	return sheet, nil
}

// WriteSheet renders frames and encodes the sheet as JPEG.
func WriteSheet(w io.Writer, frames []Frame, opts SheetOptions) error {
	sheet, err := ContactSheet(frames, opts)
	if err != nil {
		return err
	}
	return imaging.Encode(w, sheet, imaging.JPEG, imaging.JPEGQuality(85))
}
