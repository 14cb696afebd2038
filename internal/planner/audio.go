package planner

import (
	"strings"

	"github.com/smazurov/vidshrink/internal/media"
)

// Audio presets.
const (
	AudioNone        = "none"
	AudioBitrateLow  = "bitrate_low"
	AudioBitrateHigh = "bitrate_high"
)

const (
	lowBitrate        = 32  // HE-AACv2 territory
	highBitrate       = 128 // fallback when the source cannot be kept
	audioCopyMaxKbps  = 300 // AAC below this is kept as-is
	defaultSampleRate = 48000
)

// AudioOptions returns the audio targets for source. A source without audio
// only gets the "none" preset.
func AudioOptions(source media.Format) []media.AudioFormat {
	out := []media.AudioFormat{{Preset: AudioNone}}
	if source.Audio == nil {
		return out
	}
	duration := source.Container.Duration
	src := *source.Audio

	out = append(out, media.AudioFormat{
		Preset:       AudioBitrateLow,
		Codec:        media.CodecAAC,
		SampleRate:   defaultSampleRate,
		ChannelSetup: media.ChannelsStereo,
		Bitrate:      lowBitrate,
		ExpectedSize: media.ExpectedSizeKB(lowBitrate, duration),
	})

	if strings.EqualFold(src.Codec, media.CodecAAC) && src.Bitrate < audioCopyMaxKbps {
		src.Preset = AudioBitrateHigh
		src.Original = true
		out = append(out, src)
		return out
	}
	out = append(out, media.AudioFormat{
		Preset:       AudioBitrateHigh,
		Codec:        media.CodecAAC,
		SampleRate:   defaultSampleRate,
		ChannelSetup: media.ChannelsStereo,
		Bitrate:      highBitrate,
		ExpectedSize: media.ExpectedSizeKB(highBitrate, duration),
	})
	return out
}
