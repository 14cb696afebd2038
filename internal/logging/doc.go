// Package logging provides slog loggers with per-module levels.
//
// Call Initialize once at startup, then fetch a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"ffmpeg": "debug"},
//	})
//	logger := logging.GetLogger("transcode")
//
// Records go to stdout when it is attached, to the systemd journal when
// journald is reachable, and to an in-memory history served by the API:
//
//	journalctl -t vidshrink MODULE=ffmpeg
//
// The "ffmpeg" module carries the encoder's own diagnostics, mapped to the
// level ffmpeg reported them at.
//
// TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	ffmpeg = "warn"
//	api = "debug"
package logging
