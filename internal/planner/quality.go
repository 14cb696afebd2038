package planner

import (
	"slices"

	"github.com/smazurov/vidshrink/internal/media"
)

// QualityOptions returns one constant-quality target per ladder rung, lowest
// resolution first. These are never implausible.
func QualityOptions(source media.Format) []media.VideoFormat {
	audioKB := sourceAudioKB(source)
	resolutions := Resolutions(source)
	slices.Reverse(resolutions)

	out := make([]media.VideoFormat, 0, len(resolutions))
	for _, res := range resolutions {
		preset := "quality_" + Rung{Width: res.ExpectedWidth, Height: res.ExpectedHeight}.Name()
		if isOriginal(source.Video, res) {
			out = append(out, keepSource(source, preset, audioKB))
			continue
		}
		out = append(out, media.VideoFormat{
			Preset:       preset,
			Codec:        media.CodecH264,
			Color:        media.PixelFormatYUV420P,
			Width:        res.Width,
			Height:       res.Height,
			CRF:          QualityCRF,
			ExpectedSize: EstimateSize(res, source.Container.Duration, QualityCRF) + audioKB,
			FPS:          res.FPS,
		})
	}
	return out
}
