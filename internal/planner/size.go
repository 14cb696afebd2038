package planner

import (
	"math"

	"github.com/smazurov/vidshrink/internal/media"
)

// Budget is a target file size.
type Budget struct {
	Preset string
	KB     float64
}

// Budgets is the ascending size ladder.
var Budgets = []Budget{
	{Preset: "size_8mb", KB: 8000},
	{Preset: "size_16mb", KB: 16000},
	{Preset: "size_50mb", KB: 50000},
}

// SizeOptions returns one video target per budget. Each picks the highest
// rung whose estimate at FitCRF fits the budget left after the source audio.
func SizeOptions(source media.Format) []media.VideoFormat {
	audioKB := sourceAudioKB(source)
	resolutions := Resolutions(source)
	out := make([]media.VideoFormat, 0, len(Budgets))
	for _, b := range Budgets {
		out = append(out, sizeOption(source, resolutions, b, audioKB))
	}
	return out
}

func sizeOption(source media.Format, resolutions []media.Resolution, b Budget, audioKB float64) media.VideoFormat {
	duration := source.Container.Duration
	videoKB := b.KB - audioKB
	if duration <= 0 || videoKB <= 0 {
		return media.VideoFormat{
			Preset:      b.Preset,
			Implausible: true,
			Codec:       media.CodecH264,
			Color:       media.PixelFormatYUV420P,
		}
	}

	var chosen *media.Resolution
	for i := range resolutions {
		if EstimateSize(resolutions[i], duration, FitCRF) <= videoKB {
			chosen = &resolutions[i]
			break
		}
	}

	bitrate := videoKB * 8 * UndershootFactor / duration
	if chosen == nil {
		return media.VideoFormat{
			Preset:       b.Preset,
			Implausible:  true,
			Codec:        media.CodecH264,
			Color:        media.PixelFormatYUV420P,
			Bitrate:      bitrate,
			ExpectedSize: media.ExpectedSizeKB(bitrate, duration) + audioKB,
		}
	}

	if isOriginal(source.Video, *chosen) && videoKB >= expectedKB(source.Video.ExpectedSize, source.Video.Bitrate, duration) {
		return keepSource(source, b.Preset, audioKB)
	}

	bitrate = math.Min(bitrate, EstimateBitrate(chosen.Width, chosen.Height, chosen.FPS, SharpCRF))
	return media.VideoFormat{
		Preset:       b.Preset,
		Codec:        media.CodecH264,
		Color:        media.PixelFormatYUV420P,
		Width:        chosen.Width,
		Height:       chosen.Height,
		Bitrate:      bitrate,
		ExpectedSize: media.ExpectedSizeKB(bitrate, duration) + audioKB,
		FPS:          chosen.FPS,
	}
}

// isOriginal reports whether the source can be delivered as-is at res.
func isOriginal(v media.VideoFormat, res media.Resolution) bool {
	return media.IsPassthroughVideo(v) &&
		v.Width == res.Width && v.Height == res.Height &&
		v.FPS <= res.FPS
}

// keepSource returns the source video as the option for preset. Its expected
// size includes the audio like every other option.
func keepSource(source media.Format, preset string, audioKB float64) media.VideoFormat {
	v := source.Video
	v.Preset = preset
	v.Original = true
	v.ExpectedSize = expectedKB(v.ExpectedSize, v.Bitrate, source.Container.Duration) + audioKB
	return v
}

func sourceAudioKB(source media.Format) float64 {
	if source.Audio == nil {
		return 0
	}
	return expectedKB(source.Audio.ExpectedSize, source.Audio.Bitrate, source.Container.Duration)
}

// expectedKB prefers a recorded size and derives one from the bitrate for
// records that were not produced by the probe parser.
func expectedKB(recorded, bitrate, duration float64) float64 {
	if recorded > 0 {
		return recorded
	}
	return media.ExpectedSizeKB(bitrate, duration)
}
