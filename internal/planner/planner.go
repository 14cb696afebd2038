package planner

import (
	"fmt"

	"github.com/smazurov/vidshrink/internal/media"
)

// Plan is the full option set for one source.
type Plan struct {
	Source  media.Format        `json:"source"`
	Size    []media.VideoFormat `json:"size" doc:"Size-budget presets, ascending budget"`
	Quality []media.VideoFormat `json:"quality" doc:"Quality presets, ascending resolution"`
	Audio   []media.AudioFormat `json:"audio" doc:"Audio presets"`
}

// BuildPlan enumerates every option for source. The source is not modified.
func BuildPlan(source media.Format) Plan {
	source = source.Clone()
	return Plan{
		Source:  source,
		Size:    SizeOptions(source),
		Quality: QualityOptions(source),
		Audio:   AudioOptions(source),
	}
}

// Video finds a video option by preset.
func (p Plan) Video(preset string) (media.VideoFormat, bool) {
	for _, group := range [][]media.VideoFormat{p.Size, p.Quality} {
		for _, v := range group {
			if v.Preset == preset {
				return v, true
			}
		}
	}
	return media.VideoFormat{}, false
}

// AudioPreset finds an audio option by preset.
func (p Plan) AudioPreset(preset string) (media.AudioFormat, bool) {
	for _, a := range p.Audio {
		if a.Preset == preset {
			return a, true
		}
	}
	return media.AudioFormat{}, false
}

// Target assembles the chosen presets into an encode target.
func (p Plan) Target(videoPreset, audioPreset string) (media.Format, error) {
	v, ok := p.Video(videoPreset)
	if !ok {
		return media.Format{}, fmt.Errorf("unknown video preset %q", videoPreset)
	}
	if audioPreset == "" {
		audioPreset = AudioNone
	}
	a, ok := p.AudioPreset(audioPreset)
	if !ok {
		return media.Format{}, fmt.Errorf("unknown audio preset %q", audioPreset)
	}
	return Target(p.Source, v, a), nil
}

// Target builds an encode target covering the full source timeline.
func Target(source media.Format, video media.VideoFormat, audio media.AudioFormat) media.Format {
	t := media.Format{Container: source.Container, Video: video}
	if audio.Preset != AudioNone && audio.Codec != "" {
		t.Audio = &audio
	}
	return t
}
