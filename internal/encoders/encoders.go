// Package encoders reads the encoder list an ffmpeg build reports and picks
// the encoders a session can actually use.
package encoders

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/smazurov/vidshrink/internal/media"
)

// ErrUnavailable is returned when neither the configured encoder nor any
// fallback is compiled into the binary.
var ErrUnavailable = errors.New("encoder not available")

// EncoderType is the media kind an encoder produces.
type EncoderType string

const (
	VideoEncoder    EncoderType = "V"
	AudioEncoder    EncoderType = "A"
	SubtitleEncoder EncoderType = "S"
	Unknown         EncoderType = "?"
)

// Encoder is one entry of the encoder list.
type Encoder struct {
	Type        EncoderType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	HWAccel     bool        `json:"hwaccel"`
}

// EncoderList holds the encoders grouped by type.
type EncoderList struct {
	VideoEncoders    []Encoder `json:"video_encoders"`
	AudioEncoders    []Encoder `json:"audio_encoders"`
	SubtitleEncoders []Encoder `json:"subtitle_encoders"`
	OtherEncoders    []Encoder `json:"other_encoders"`
}

var (
	encoderRegex = regexp.MustCompile(`^\s*([VASFXBD\.]{6})\s+(\w+)\s+(.+)$`)
	hwaccelRegex = regexp.MustCompile(`(?i)(nvenc|qsv|amf|vaapi|videotoolbox|vdpau|cuda|dxva2|d3d11va|opencl|vulkan|v4l2m2m|rkmpp)`)
)

// ListArgs returns the arguments that make the encoder print its encoder list.
func ListArgs() []string {
	return []string{"-hide_banner", "-encoders"}
}

// Parse builds an EncoderList from the lines of the encoder list output.
// Lines before the "Encoders:" header are ignored. The flag legend never
// matches because its second column is "=".
func Parse(lines iter.Seq[string]) *EncoderList {
	result := &EncoderList{}
	started := false
	for line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if !started {
			started = strings.Contains(line, "Encoders:")
			continue
		}
		m := encoderRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		flags, name, desc := m[1], m[2], strings.TrimSpace(m[3])

		enc := Encoder{Name: name, Description: desc, HWAccel: hwaccelRegex.MatchString(name) || hwaccelRegex.MatchString(desc)}
		switch flags[0] {
		case 'V':
			enc.Type = VideoEncoder
			result.VideoEncoders = append(result.VideoEncoders, enc)
		case 'A':
			enc.Type = AudioEncoder
			result.AudioEncoders = append(result.AudioEncoders, enc)
		case 'S':
			enc.Type = SubtitleEncoder
			result.SubtitleEncoders = append(result.SubtitleEncoders, enc)
		default:
			enc.Type = Unknown
			result.OtherEncoders = append(result.OtherEncoders, enc)
		}
	}
	return result
}

// Has reports whether an encoder of type t named name is listed.
func (l *EncoderList) Has(t EncoderType, name string) bool {
	var list []Encoder
	switch t {
	case VideoEncoder:
		list = l.VideoEncoders
	case AudioEncoder:
		list = l.AudioEncoders
	case SubtitleEncoder:
		list = l.SubtitleEncoders
	default:
		list = l.OtherEncoders
	}
	return slices.ContainsFunc(list, func(e Encoder) bool { return e.Name == name })
}

// Fallbacks lists, per preferred encoder, what to use when it is missing.
// Only software encoders are listed; their output matches the size model.
var Fallbacks = map[string][]string{
	"libfdk_aac": {"aac"},
	"libx264":    {"libopenh264"},
}

// Selection is the outcome of Resolve.
type Selection struct {
	Video string
	Audio string
	Notes []string // one per substitution
}

// Resolve checks the configured encoders against l. Empty names mean the
// codec default for the output formats. A missing encoder is replaced by its
// first available fallback.
func Resolve(l *EncoderList, video, audio string) (Selection, error) {
	if video == "" {
		video = media.VideoCodecs[media.CodecH264].Encoder
	}
	if audio == "" {
		audio = media.AudioCodecs[media.CodecAAC].Encoder
	}

	var sel Selection
	var err error
	if sel.Video, err = pick(l, VideoEncoder, video, &sel.Notes); err != nil {
		return Selection{}, err
	}
	if sel.Audio, err = pick(l, AudioEncoder, audio, &sel.Notes); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

func pick(l *EncoderList, t EncoderType, name string, notes *[]string) (string, error) {
	if l.Has(t, name) {
		return name, nil
	}
	for _, alt := range Fallbacks[name] {
		if l.Has(t, alt) {
			*notes = append(*notes, fmt.Sprintf("%s is not available, using %s", name, alt))
			return alt, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnavailable, name)
}
