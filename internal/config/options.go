package config

import (
	"fmt"
	"time"

	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/thumbnails"
	"github.com/smazurov/vidshrink/internal/transcode"
)

// Options is the flat CLI option set. Each field doubles as a TOML key and
// an environment variable.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"vidshrink.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CorsOrigin string `help:"Origin allowed to call the API" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Authentication settings
	AuthUsername string `help:"Basic auth username for the API" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password for the API" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Encoder settings
	FfmpegBinary       string `help:"ffmpeg executable" default:"ffmpeg" toml:"ffmpeg.binary" env:"FFMPEG_BINARY"`
	FfmpegVideoEncoder string `help:"Video encoder override" default:"libx264" toml:"ffmpeg.video_encoder" env:"FFMPEG_VIDEO_ENCODER"`
	FfmpegAudioEncoder string `help:"Audio encoder override (aac disables HE-AAC profiles)" default:"libfdk_aac" toml:"ffmpeg.audio_encoder" env:"FFMPEG_AUDIO_ENCODER"`
	FfmpegPreset       string `help:"Encoder speed preset" default:"medium" toml:"ffmpeg.preset" env:"FFMPEG_PRESET"`
	FfmpegWorkdir      string `help:"Workspace directory (default: a temporary directory)" toml:"ffmpeg.workdir" env:"FFMPEG_WORKDIR"`

	// Preview settings
	PreviewsIntervalSeconds int    `help:"Seconds between preview frames" default:"5" toml:"previews.interval_seconds" env:"PREVIEWS_INTERVAL_SECONDS"`
	PreviewsWidth           int    `help:"Preview frame width in pixels" default:"320" toml:"previews.width" env:"PREVIEWS_WIDTH"`
	PreviewsStallTimeout    string `help:"Abort previews when no frame arrives for this long" default:"10s" toml:"previews.stall_timeout" env:"PREVIEWS_STALL_TIMEOUT"`
	PreviewsPollInterval    string `help:"Delay between frame polls" default:"200ms" toml:"previews.poll_interval" env:"PREVIEWS_POLL_INTERVAL"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingFfmpeg string `help:"Level for re-logged encoder output" toml:"logging.modules.ffmpeg" env:"LOGGING_FFMPEG"`
}

// SessionOptions converts the encoder and preview settings.
func (o *Options) SessionOptions() (transcode.Options, error) {
	stall, err := parseDuration("previews.stall_timeout", o.PreviewsStallTimeout, thumbnails.DefaultStallTimeout)
	if err != nil {
		return transcode.Options{}, err
	}
	poll, err := parseDuration("previews.poll_interval", o.PreviewsPollInterval, thumbnails.DefaultPollInterval)
	if err != nil {
		return transcode.Options{}, err
	}

	opts := transcode.DefaultOptions
	if o.FfmpegPreset != "" {
		opts.Preset = o.FfmpegPreset
	}
	opts.VideoEncoder = o.FfmpegVideoEncoder
	opts.AudioEncoder = o.FfmpegAudioEncoder
	if o.PreviewsIntervalSeconds > 0 {
		opts.PreviewInterval = float64(o.PreviewsIntervalSeconds)
	}
	if o.PreviewsWidth > 0 {
		opts.PreviewWidth = o.PreviewsWidth
	}
	opts.Extraction = thumbnails.Options{StallTimeout: stall, PollInterval: poll}
	return opts, nil
}

// TranscodeOptions returns the argument synthesis overrides for input.
func (o *Options) TranscodeOptions(input string) ffmpeg.TranscodeOptions {
	return ffmpeg.TranscodeOptions{
		Input:        input,
		Output:       ffmpeg.OutputName(input),
		Preset:       o.FfmpegPreset,
		VideoEncoder: o.FfmpegVideoEncoder,
		AudioEncoder: o.FfmpegAudioEncoder,
	}
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, value)
	}
	return d, nil
}
