package events

// Event type identifiers.
const (
	TypeProbeCompleted uint32 = iota + 1
	TypeEncodeStarted
	TypeEncodeProgress
	TypeEncodeFinished
	TypePreviewFrame
	TypePreviewStopped
	TypeLogEntry
)

// Event is implemented by everything published on the Bus.
type Event interface {
	Type() uint32
}

// ProbeCompletedEvent is published after a source has been probed.
type ProbeCompletedEvent struct {
	Input      string  `json:"input" example:"clip.mov" doc:"Probed input name"`
	Duration   float64 `json:"duration" example:"120.5" doc:"Duration in seconds"`
	Width      int     `json:"width" example:"1920" doc:"Video width"`
	Height     int     `json:"height" example:"1080" doc:"Video height"`
	VideoCodec string  `json:"video_codec" example:"h264" doc:"Source video codec"`
	AudioCodec string  `json:"audio_codec,omitempty" example:"aac" doc:"Source audio codec, empty when silent"`
	Timestamp  string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns TypeProbeCompleted.
func (e ProbeCompletedEvent) Type() uint32 { return TypeProbeCompleted }

// EncodeStartedEvent is published when a transcode job starts.
type EncodeStartedEvent struct {
	JobID     string   `json:"job_id" doc:"Encoder job identifier"`
	Input     string   `json:"input" example:"clip.mov" doc:"Input name"`
	Output    string   `json:"output" example:"output clip.mov" doc:"Output name"`
	Args      []string `json:"args" doc:"Encoder arguments"`
	Timestamp string   `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns TypeEncodeStarted.
func (e EncodeStartedEvent) Type() uint32 { return TypeEncodeStarted }

// EncodeProgressEvent reports how far a transcode job has got.
type EncodeProgressEvent struct {
	JobID     string  `json:"job_id" doc:"Encoder job identifier"`
	Input     string  `json:"input" example:"clip.mov" doc:"Input name"`
	Percent   float64 `json:"percent" example:"42.5" doc:"Completion between 0 and 100"`
	Timestamp string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns TypeEncodeProgress.
func (e EncodeProgressEvent) Type() uint32 { return TypeEncodeProgress }

// EncodeFinishedEvent is published when a transcode job ends for any reason.
type EncodeFinishedEvent struct {
	JobID     string `json:"job_id" doc:"Encoder job identifier"`
	Input     string `json:"input" example:"clip.mov" doc:"Input name"`
	Output    string `json:"output" example:"output clip.mov" doc:"Output name"`
	Error     string `json:"error,omitempty" doc:"Failure reason, empty on success"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns TypeEncodeFinished.
func (e EncodeFinishedEvent) Type() uint32 { return TypeEncodeFinished }

// PreviewFrameEvent carries one extracted preview frame.
type PreviewFrameEvent struct {
	JobID     string  `json:"job_id" doc:"Frame job identifier"`
	Input     string  `json:"input" example:"clip.mov" doc:"Input name"`
	Index     int     `json:"index" example:"3" doc:"1-based frame number"`
	Seconds   float64 `json:"seconds" example:"10" doc:"Position of the frame in the clip"`
	Image     string  `json:"image" doc:"Base64-encoded JPEG"`
	Timestamp string  `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns TypePreviewFrame.
func (e PreviewFrameEvent) Type() uint32 { return TypePreviewFrame }

// PreviewStoppedEvent is published when preview extraction ends early.
type PreviewStoppedEvent struct {
	JobID     string `json:"job_id" doc:"Frame job identifier"`
	Input     string `json:"input" example:"clip.mov" doc:"Input name"`
	Frames    int    `json:"frames" example:"7" doc:"Frames delivered before stopping"`
	Reason    string `json:"reason" example:"frame job stalled" doc:"Why extraction stopped"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns TypePreviewStopped.
func (e PreviewStoppedEvent) Type() uint32 { return TypePreviewStopped }

// LogEntryEvent mirrors a log record for streaming clients.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number"`
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"transcode" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns TypeLogEntry.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
