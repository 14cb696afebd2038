package models

import (
	"github.com/smazurov/vidshrink/internal/media"
	"github.com/smazurov/vidshrink/internal/planner"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// SourceData identifies the source either as an already parsed record or as
// raw probe output. ProbeOutput wins when both are set.
type SourceData struct {
	Source      *media.Format `json:"source,omitempty" doc:"Parsed source format"`
	ProbeOutput string        `json:"probe_output,omitempty" doc:"Diagnostic text printed by the encoder when probing the source"`
}

// Plan models
type PlanRequest struct {
	Body SourceData
}

type PlanResponse struct {
	Body planner.Plan
}

// Argument synthesis models
type ArgsRequestData struct {
	SourceData
	Input       string `json:"input" minLength:"1" example:"clip.mov" doc:"Input name inside the encoder workspace"`
	VideoPreset string `json:"video_preset" minLength:"1" example:"size_8mb" doc:"Video preset from the plan"`
	AudioPreset string `json:"audio_preset,omitempty" example:"bitrate_high" doc:"Audio preset from the plan, default none"`
}

type ArgsRequest struct {
	Body ArgsRequestData
}

type ArgsData struct {
	Output string       `json:"output" example:"output clip.mov" doc:"Name the encoder will write"`
	Args   []string     `json:"args" doc:"Ordered encoder arguments"`
	Target media.Format `json:"target" doc:"Resolved encode target"`
}

type ArgsResponse struct {
	Body ArgsData
}

// Progress models
type ProgressRequest struct {
	Body struct {
		Line     string  `json:"line" example:"frame=  120 fps= 30 q=28.0 size=512kB time=00:00:04.00 bitrate=1048.6kbits/s" doc:"Encoder status line"`
		Duration float64 `json:"duration" minimum:"0" example:"120" doc:"Target duration in seconds"`
	}
}

type ProgressData struct {
	Matched bool    `json:"matched" doc:"Whether the line carried an elapsed time"`
	Percent float64 `json:"percent" example:"3.33" doc:"Completion between 0 and 100"`
}

type ProgressResponse struct {
	Body ProgressData
}
