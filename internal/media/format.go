// Package media holds the format records exchanged between the probe parser,
// the planner and the argument synthesizer.
package media

// ContainerFormat describes the outer file timing.
type ContainerFormat struct {
	Duration float64 `json:"duration" example:"120" doc:"Duration in seconds"`
	Start    float64 `json:"start" required:"false" example:"0" doc:"Timestamp of the first sample in seconds"`
	Bitrate  float64 `json:"bitrate,omitempty" example:"4197" doc:"Overall bitrate in kbit/s (probed sources only)"`
}

// VideoFormat describes a probed video stream or a video encode target.
// A probed source always carries Bitrate; an encode target carries CRF or
// Bitrate (0 = not set).
type VideoFormat struct {
	Preset       string  `json:"preset,omitempty" example:"size_8mb" doc:"Preset label"`
	Implausible  bool    `json:"implausible" required:"false" doc:"Target cannot be reached within its budget"`
	Original     bool    `json:"original" required:"false" doc:"Record describes the unmodified source stream"`
	Codec        string  `json:"codec" example:"h264" doc:"Codec name"`
	Color        string  `json:"color" example:"yuv420p" doc:"Pixel format"`
	Width        int     `json:"width" example:"1280"`
	Height       int     `json:"height" example:"720"`
	Bitrate      float64 `json:"bitrate,omitempty" example:"2500" doc:"Bitrate in kbit/s"`
	CRF          float64 `json:"crf,omitempty" example:"21" doc:"Constant rate factor, 0 when unset"`
	ExpectedSize float64 `json:"expected_size" required:"false" example:"37500" doc:"Expected size in KB"`
	FPS          float64 `json:"fps" example:"30"`
}

// AudioFormat describes a probed audio stream or an audio encode target.
type AudioFormat struct {
	Preset       string  `json:"preset,omitempty" example:"bitrate_high"`
	Implausible  bool    `json:"implausible" required:"false"`
	Original     bool    `json:"original" required:"false"`
	Codec        string  `json:"codec" example:"aac"`
	SampleRate   int     `json:"sample_rate" example:"48000" doc:"Sample rate in Hz"`
	ChannelSetup string  `json:"channel_setup" example:"stereo" doc:"Channel layout"`
	Bitrate      float64 `json:"bitrate" example:"128" doc:"Bitrate in kbit/s"`
	ExpectedSize float64 `json:"expected_size" required:"false" example:"1920" doc:"Expected size in KB"`
}

// Format is the unit exchanged between components. A nil Audio means there is
// no audio stream (source) or no audio target.
type Format struct {
	Container ContainerFormat `json:"container"`
	Video     VideoFormat     `json:"video"`
	Audio     *AudioFormat    `json:"audio,omitempty"`
}

// Clone returns a copy that shares no pointers with f.
func (f Format) Clone() Format {
	if f.Audio != nil {
		a := *f.Audio
		f.Audio = &a
	}
	return f
}

// Resolution is one scaled rung of a resolution ladder.
type Resolution struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	ExpectedWidth  int     `json:"expected_width"`
	ExpectedHeight int     `json:"expected_height"`
}

// ExpectedSizeKB converts a kbit/s rate over a duration to kilobytes.
func ExpectedSizeKB(bitrate, duration float64) float64 {
	return bitrate * duration / 8
}
