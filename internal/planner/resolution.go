package planner

import (
	"math"

	"github.com/smazurov/vidshrink/internal/media"
)

// DefaultFPS is the frame-rate cap of every ladder rung.
const DefaultFPS = 30

// Rung is an unscaled bounding box of the resolution ladder.
type Rung struct {
	Width  int
	Height int
	FPS    float64
}

// Name is the conventional label of the rung, e.g. "720p".
func (r Rung) Name() string {
	return itoa(r.Height) + "p"
}

// Ladder is ordered from highest to lowest resolution.
var Ladder = []Rung{
	{Width: 1280, Height: 720, FPS: DefaultFPS},
	{Width: 854, Height: 480, FPS: DefaultFPS},
	{Width: 640, Height: 360, FPS: DefaultFPS},
}

// CreateResolution scales the source into the bounding box without
// upscaling and rounds both dimensions to even numbers, which 4:2:0 chroma
// subsampling requires. The frame rate is the source rate divided by the
// smallest integer factor that brings it to fps or below.
func CreateResolution(source media.Format, boundingWidth, boundingHeight int, fps float64) media.Resolution {
	v := source.Video
	scale := 1.0
	if v.Width > 0 {
		scale = math.Min(scale, float64(boundingWidth)/float64(v.Width))
	}
	if v.Height > 0 {
		scale = math.Min(scale, float64(boundingHeight)/float64(v.Height))
	}
	return media.Resolution{
		Width:          evenRound(float64(v.Width) * scale),
		Height:         evenRound(float64(v.Height) * scale),
		FPS:            DownsampleFPS(v.FPS, fps),
		ExpectedWidth:  boundingWidth,
		ExpectedHeight: boundingHeight,
	}
}

// DownsampleFPS divides sourceFPS by the integer drop factor needed to not
// exceed capFPS.
func DownsampleFPS(sourceFPS, capFPS float64) float64 {
	if sourceFPS <= 0 || capFPS <= 0 {
		return sourceFPS
	}
	factor := math.Ceil(sourceFPS / capFPS)
	if factor < 1 {
		factor = 1
	}
	return sourceFPS / factor
}

func evenRound(v float64) int {
	return int(math.Round(v/2)) * 2
}

// Resolutions applies the ladder to source, highest first. When several rungs
// collapse to the same scaled width only the lowest of them is kept, so its
// bounding box is the tightest one that still yields that size.
func Resolutions(source media.Format) []media.Resolution {
	out := make([]media.Resolution, 0, len(Ladder))
	seen := make(map[int]int, len(Ladder))
	for _, r := range Ladder {
		res := CreateResolution(source, r.Width, r.Height, r.FPS)
		if i, ok := seen[res.Width]; ok {
			out[i] = res
			continue
		}
		seen[res.Width] = len(out)
		out = append(out, res)
	}
	return out
}
