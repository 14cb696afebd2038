package ffmpeg

import (
	"fmt"
	"math"
)

// FrameExt is the image format produced by the frame job.
const FrameExt = "jpg"

// FrameName is the file the frame job writes for frame n (1-based).
func FrameName(n int) string {
	return fmt.Sprintf("frame_%d.%s", n, FrameExt)
}

// FrameCount is the number of frames a frame job produces for a clip of
// duration seconds sampled every interval seconds.
func FrameCount(duration, interval float64) int {
	if duration <= 0 || interval <= 0 {
		return 0
	}
	return int(math.Floor(duration / interval))
}

// FrameArgs returns the arguments for a job that writes one scaled image
// every interval seconds, numbered from 1. Frames are renamed into place so a
// reader never sees a partial file.
func FrameArgs(input string, interval float64, width int) []string {
	filter := "fps=1/" + formatFloat(interval)
	if width > 0 {
		filter += fmt.Sprintf(",scale=%d:-2", width)
	}
	return []string{
		"-hide_banner", "-y",
		"-an", "-sn", "-dn",
		"-i", input,
		"-vf", filter,
		"-q:v", "5",
		"-f", "image2",
		"-atomic_writing", "1",
		"frame_%d." + FrameExt,
	}
}
