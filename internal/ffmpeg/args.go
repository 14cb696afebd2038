package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/vidshrink/internal/media"
)

// Synthesis errors. The wrapping error names the offending codec or field.
var (
	ErrUnsupportedVideoCodec = errors.New("unsupported video codec")
	ErrUnsupportedAudioCodec = errors.New("unsupported audio codec")
	ErrMissingRateControl    = errors.New("video target has neither crf nor bitrate")
)

// Output container settings.
const (
	OutputContainer = "mp4"
	outputMovFlags  = "+faststart"
	defaultPreset   = "medium"
)

// TranscodeOptions names the files and encoder overrides for one encode.
// Empty encoder fields fall back to the codec lookup tables.
type TranscodeOptions struct {
	Input        string
	Output       string
	Preset       string // libx264 speed preset, default "medium"
	VideoEncoder string
	AudioEncoder string
}

// OutputName is the naming convention for the file produced from input.
func OutputName(input string) string {
	return "output " + input
}

// videoPlan and audioPlan are the resolved per-stream actions. Synthesis
// matches on them exhaustively.
type videoPlan struct {
	codec media.VideoCodec
	rc    media.RateControl
}

type audioPlan interface {
	isAudioPlan()
}

type audioAbsent struct{}

type audioCopy struct{}

type audioEncode struct {
	codec      media.AudioCodec
	heProfiles bool
	target     media.AudioFormat
}

func (audioAbsent) isAudioPlan() {}
func (audioCopy) isAudioPlan()   {}
func (audioEncode) isAudioPlan() {}

// BuildTranscodeArgs turns a chosen target into the ordered encoder argument
// list. It returns an error, and no arguments, when the target names an
// unsupported codec or lacks a rate control value.
func BuildTranscodeArgs(source, target media.Format, opts TranscodeOptions) ([]string, error) {
	vp, err := resolveVideo(target.Video, opts)
	if err != nil {
		return nil, err
	}
	ap, err := resolveAudio(source.Audio, target.Audio, opts)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-y"}
	args = append(args, trimArgs(source.Container, target.Container)...)

	if _, ok := ap.(audioAbsent); ok {
		args = append(args, "-an")
	}
	args = append(args, "-sn", "-dn")
	args = append(args, "-i", opts.Input)

	args = append(args, videoArgs(source.Video, target.Video, vp, opts)...)
	args = append(args, audioArgs(ap)...)

	args = append(args, "-f", OutputContainer, "-movflags", outputMovFlags, opts.Output)
	return args, nil
}

func resolveVideo(target media.VideoFormat, opts TranscodeOptions) (videoPlan, error) {
	codec, ok := media.LookupVideoCodec(target.Codec)
	if !ok {
		return videoPlan{}, fmt.Errorf("%w: %q", ErrUnsupportedVideoCodec, target.Codec)
	}
	if opts.VideoEncoder != "" {
		codec.Encoder = opts.VideoEncoder
	}
	rc := target.RateControl()
	if rc == nil {
		return videoPlan{}, fmt.Errorf("%w (preset %q)", ErrMissingRateControl, target.Preset)
	}
	return videoPlan{codec: codec, rc: rc}, nil
}

func resolveAudio(source, target *media.AudioFormat, opts TranscodeOptions) (audioPlan, error) {
	if target == nil || target.Codec == "" || target.Bitrate <= 0 {
		return audioAbsent{}, nil
	}
	codec, ok := media.LookupAudioCodec(target.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAudioCodec, target.Codec)
	}
	if source != nil &&
		strings.EqualFold(source.Codec, target.Codec) &&
		source.SampleRate == target.SampleRate &&
		source.ChannelSetup == target.ChannelSetup &&
		source.Bitrate <= target.Bitrate {
		return audioCopy{}, nil
	}
	he := codec.HEProfiles
	if opts.AudioEncoder != "" && opts.AudioEncoder != codec.Encoder {
		codec.Encoder = opts.AudioEncoder
		he = false
	}
	return audioEncode{codec: codec, heProfiles: he, target: *target}, nil
}

func trimArgs(source, target media.ContainerFormat) []string {
	var args []string
	start := source.Start
	if target.Start > source.Start {
		start = target.Start
		args = append(args, "-ss", formatSeconds(target.Start-source.Start))
	}
	remaining := source.Start + source.Duration - start
	if target.Duration > 0 && target.Duration < remaining {
		args = append(args, "-t", formatSeconds(target.Duration))
	}
	return args
}

func videoArgs(source, target media.VideoFormat, vp videoPlan, opts TranscodeOptions) []string {
	args := []string{"-pix_fmt", target.Color, "-sws_flags", "lanczos"}
	if target.Width > 0 && target.Height > 0 &&
		(target.Width != source.Width || target.Height != source.Height) {
		args = append(args, "-s", fmt.Sprintf("%dx%d", target.Width, target.Height))
	}
	if target.FPS > 0 && source.FPS > target.FPS {
		args = append(args, "-r", formatFloat(target.FPS))
	}

	preset := opts.Preset
	if preset == "" {
		preset = defaultPreset
	}
	args = append(args, "-c:v", vp.codec.Encoder, "-preset", preset)
	if vp.codec.Profile != "" {
		args = append(args, "-profile:v", vp.codec.Profile)
	}

	switch rc := vp.rc.(type) {
	case media.ConstantQuality:
		args = append(args, "-crf", formatFloat(rc.CRF))
	case media.ConstantBitrate:
		args = append(args, "-b:v", formatKbps(rc.Kbps))
	}
	return args
}

func audioArgs(ap audioPlan) []string {
	switch p := ap.(type) {
	case audioCopy:
		return []string{"-c:a", "copy"}
	case audioEncode:
		args := []string{
			"-ar", strconv.Itoa(p.target.SampleRate),
			"-c:a", p.codec.Encoder,
			"-b:a", formatKbps(p.target.Bitrate),
			"-ac", "2",
		}
		if p.heProfiles {
			if profile := heProfile(p.target); profile != "" {
				args = append(args, "-profile:a", profile)
			}
		}
		return args
	default:
		return nil
	}
}

// heProfile picks an HE-AAC profile for low bitrates.
// TODO: confirm with product whether the 72 kbit/s bound was meant for mono
// targets only.
func heProfile(a media.AudioFormat) string {
	stereo := a.ChannelSetup == media.ChannelsStereo
	mono := a.ChannelSetup == media.ChannelsMono
	switch {
	case stereo && a.Bitrate <= 48:
		return "aac_he_v2"
	case (mono && a.Bitrate <= 48) || a.Bitrate <= 72:
		return "aac_he"
	default:
		return ""
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatKbps(kbps float64) string {
	return strconv.FormatFloat(kbps, 'f', 0, 64) + "k"
}
