package ffmpeg

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/smazurov/vidshrink/internal/media"
)

// PartialFormat accumulates probe output across diagnostic lines. The
// container line is always emitted before the stream lines.
type PartialFormat struct {
	Container *media.ContainerFormat
	Video     *media.VideoFormat
	Audio     *media.AudioFormat
}

// Complete reports whether enough was parsed to plan an encode.
func (p *PartialFormat) Complete() bool {
	return p.Container != nil && p.Video != nil
}

// Format returns the accumulated record. Callers must check Complete first.
func (p *PartialFormat) Format() media.Format {
	f := media.Format{}
	if p.Container != nil {
		f.Container = *p.Container
	}
	if p.Video != nil {
		f.Video = *p.Video
	}
	if p.Audio != nil {
		a := *p.Audio
		f.Audio = &a
	}
	return f
}

const timestampPattern = `(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`

var (
	containerRegex = regexp.MustCompile(`Duration:\s*` + timestampPattern +
		`,\s*start:\s*(-?\d+(?:\.\d+)?),\s*bitrate:\s*(\d+(?:\.\d+)?|N/A)`)
	videoRegex = regexp.MustCompile(`Stream #.*?Video:\s*([^\s,]+)`)
	audioRegex = regexp.MustCompile(`Stream #.*?Audio:\s*([^\s,]+)`)
	// color token, optionally followed by a parenthesized annotation that can
	// itself contain commas, then the dimensions.
	colorSizeRegex = regexp.MustCompile(`,\s*([a-z0-9_]+)(?:\([^)]*\))?,\s*(\d+)x(\d+)`)
	kbpsRegex      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kb/s`)
	fpsRegex       = regexp.MustCompile(`(\d+(?:\.\d+)?)(k?)\s*fps`)
	tbrRegex       = regexp.MustCompile(`(\d+(?:\.\d+)?)(k?)\s*tbr`)
	audioSpecRegex = regexp.MustCompile(`,\s*(\d+)\s*Hz,\s*([^,]+)`)
	timeRegex      = regexp.MustCompile(`time=\s*` + timestampPattern)
)

// ParseTimestamp converts H:MM:SS.frac to seconds.
func ParseTimestamp(ts string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 3 {
		return 0, false
	}
	return timestampSeconds(parts[0], parts[1], parts[2])
}

func timestampSeconds(h, m, s string) (float64, bool) {
	hours, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return (hours*60+minutes)*60 + seconds, true
}

// ParseLine inspects one encoder diagnostic line and records any container,
// video or audio metadata into acc. Lines that match nothing are ignored.
// Stream lines are only accepted once the container is known, and the first
// video and first audio stream win.
func ParseLine(line string, acc *PartialFormat) {
	if acc == nil {
		return
	}
	if c, ok := parseContainer(line); ok {
		acc.Container = &c
		return
	}
	if acc.Container == nil || strings.Contains(line, "(attached pic)") {
		return
	}
	if v, ok := parseVideo(line, *acc.Container); ok {
		if acc.Video == nil {
			acc.Video = &v
		}
		return
	}
	if a, ok := parseAudio(line, *acc.Container); ok {
		if acc.Audio == nil {
			acc.Audio = &a
		}
	}
}

func parseContainer(line string) (media.ContainerFormat, bool) {
	m := containerRegex.FindStringSubmatch(line)
	if m == nil {
		return media.ContainerFormat{}, false
	}
	duration, ok := timestampSeconds(m[1], m[2], m[3])
	if !ok {
		return media.ContainerFormat{}, false
	}
	start, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return media.ContainerFormat{}, false
	}
	c := media.ContainerFormat{
		Duration: duration,
		Start:    math.Max(start, 0),
	}
	if br, err := strconv.ParseFloat(m[5], 64); err == nil {
		c.Bitrate = br
	}
	return c, true
}

func parseVideo(line string, container media.ContainerFormat) (media.VideoFormat, bool) {
	m := videoRegex.FindStringSubmatchIndex(line)
	if m == nil {
		return media.VideoFormat{}, false
	}
	codec := line[m[2]:m[3]]
	rest := line[m[1]:]

	cs := colorSizeRegex.FindStringSubmatchIndex(rest)
	if cs == nil {
		return media.VideoFormat{}, false
	}
	color := rest[cs[2]:cs[3]]
	width, _ := strconv.Atoi(rest[cs[4]:cs[5]])
	height, _ := strconv.Atoi(rest[cs[6]:cs[7]])
	tail := rest[cs[1]:]

	bitrate := container.Bitrate
	if km := kbpsRegex.FindStringSubmatch(tail); km != nil {
		bitrate, _ = strconv.ParseFloat(km[1], 64)
	}
	fps := math.Max(rate(fpsRegex, tail), rate(tbrRegex, tail))

	return media.VideoFormat{
		Original:     true,
		Codec:        codec,
		Color:        color,
		Width:        width,
		Height:       height,
		Bitrate:      bitrate,
		ExpectedSize: media.ExpectedSizeKB(bitrate, container.Duration),
		FPS:          fps,
	}, true
}

// rate returns the first rate token matched by re, honouring the "k"
// multiplier the encoder uses for large timebase figures.
func rate(re *regexp.Regexp, s string) float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] == "k" {
		v *= 1000
	}
	return v
}

func parseAudio(line string, container media.ContainerFormat) (media.AudioFormat, bool) {
	m := audioRegex.FindStringSubmatchIndex(line)
	if m == nil {
		return media.AudioFormat{}, false
	}
	codec := line[m[2]:m[3]]
	rest := line[m[1]:]

	spec := audioSpecRegex.FindStringSubmatchIndex(rest)
	if spec == nil {
		return media.AudioFormat{}, false
	}
	sampleRate, _ := strconv.Atoi(rest[spec[2]:spec[3]])
	channels := strings.TrimSpace(rest[spec[4]:spec[5]])

	var bitrate float64
	if km := kbpsRegex.FindStringSubmatch(rest[spec[1]:]); km != nil {
		bitrate, _ = strconv.ParseFloat(km[1], 64)
	}

	return media.AudioFormat{
		Original:     true,
		Codec:        codec,
		SampleRate:   sampleRate,
		ChannelSetup: channels,
		Bitrate:      bitrate,
		ExpectedSize: media.ExpectedSizeKB(bitrate, container.Duration),
	}, true
}

// ProbeArgs returns the argument list that makes the encoder print stream
// metadata for input. The run itself fails because no output is given.
func ProbeArgs(input string) []string {
	return []string{"-hide_banner", "-v", "info", "-i", input}
}
