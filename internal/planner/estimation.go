package planner

import (
	"math"
	"strconv"

	"github.com/smazurov/vidshrink/internal/media"
)

// Reference qualities used by the planner.
const (
	FitCRF     = 25 // a rung fits a budget if it does at this quality
	SharpCRF   = 18 // upper bound on the bitrate a rung needs
	QualityCRF = 21 // quality-ladder target

	// UndershootFactor leaves headroom for muxing overhead and rate-control
	// overshoot when deriving a bitrate from a byte budget.
	UndershootFactor = 0.9
)

// Size model constants, calibrated on 720p30 libx264 medium encodes.
const (
	refPixels     = 1280 * 720
	refFPS        = 30
	refRateCRF    = 70653 // kbit/s * crf at the reference frame size and rate
	pixelExponent = 1.6
	minModelFPS   = 3
)

// EstimateBitrate predicts the average video bitrate in kbit/s of an encode at
// the given size, frame rate and CRF. It grows with pixels and frame rate and
// shrinks as crf grows.
func EstimateBitrate(width, height int, fps, crf float64) float64 {
	if width <= 0 || height <= 0 || crf <= 0 {
		return 0
	}
	area := float64(width*height) / refPixels
	return refRateCRF * math.Pow(area, pixelExponent) * motion(fps) / motion(refFPS) / crf
}

// EstimateSize predicts the encoded size in KB of duration seconds at res.
func EstimateSize(res media.Resolution, duration, crf float64) float64 {
	return media.ExpectedSizeKB(EstimateBitrate(res.Width, res.Height, res.FPS, crf), duration)
}

// motion is the frame-rate term f/log2(f): later frames are cheaper to code
// because they are predicted from earlier ones.
func motion(fps float64) float64 {
	fps = math.Max(fps, minModelFPS)
	return fps / math.Log2(fps)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
