package media

import "strings"

// Codec and pixel format names as reported by the encoder.
const (
	CodecH264 = "h264"
	CodecAAC  = "aac"

	PixelFormatYUV420P = "yuv420p"

	ChannelsStereo = "stereo"
	ChannelsMono   = "mono"
)

// VideoCodec maps a codec family to the encoder that produces it.
type VideoCodec struct {
	Name    string
	Encoder string
	Profile string
}

// AudioCodec maps a codec family to the encoder that produces it.
type AudioCodec struct {
	Name    string
	Encoder string
	// HEProfiles is true when the encoder accepts the aac_he/aac_he_v2 profiles.
	HEProfiles bool
}

// VideoCodecs lists the supported video codec families keyed by codec name.
var VideoCodecs = map[string]VideoCodec{
	CodecH264: {Name: CodecH264, Encoder: "libx264", Profile: "high"},
}

// AudioCodecs lists the supported audio codec families keyed by codec name.
var AudioCodecs = map[string]AudioCodec{
	CodecAAC: {Name: CodecAAC, Encoder: "libfdk_aac", HEProfiles: true},
}

// LookupVideoCodec finds a supported video codec by name.
func LookupVideoCodec(name string) (VideoCodec, bool) {
	c, ok := VideoCodecs[strings.ToLower(name)]
	return c, ok
}

// LookupAudioCodec finds a supported audio codec by name.
func LookupAudioCodec(name string) (AudioCodec, bool) {
	c, ok := AudioCodecs[strings.ToLower(name)]
	return c, ok
}

// IsPassthroughVideo reports whether v is already in the delivery format
// (H.264 with 4:2:0 chroma).
func IsPassthroughVideo(v VideoFormat) bool {
	return strings.EqualFold(v.Codec, CodecH264) && v.Color == PixelFormatYUV420P
}
