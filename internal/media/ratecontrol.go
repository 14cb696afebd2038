package media

// RateControl is the encode mode requested by a video target.
type RateControl interface {
	isRateControl()
}

// ConstantQuality encodes at a fixed constant rate factor.
type ConstantQuality struct {
	CRF float64
}

// ConstantBitrate encodes at an average bitrate in kbit/s.
type ConstantBitrate struct {
	Kbps float64
}

func (ConstantQuality) isRateControl() {}
func (ConstantBitrate) isRateControl() {}

// RateControl reports how v should be encoded. CRF wins when both CRF and
// Bitrate are set. Zero means unset for both, so a lossless CRF of 0 cannot
// be requested. It returns nil when neither is set.
func (v VideoFormat) RateControl() RateControl {
	switch {
	case v.CRF > 0:
		return ConstantQuality{CRF: v.CRF}
	case v.Bitrate > 0:
		return ConstantBitrate{Kbps: v.Bitrate}
	default:
		return nil
	}
}
