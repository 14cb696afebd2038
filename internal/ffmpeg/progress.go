package ffmpeg

// ParseProgress extracts the elapsed time from an encoder status line and
// returns it as a percentage of targetDuration, clamped to [0, 100].
func ParseProgress(line string, targetDuration float64) (float64, bool) {
	m := timeRegex.FindStringSubmatch(line)
	if m == nil || targetDuration <= 0 {
		return 0, false
	}
	elapsed, ok := timestampSeconds(m[1], m[2], m[3])
	if !ok {
		return 0, false
	}
	pct := elapsed / targetDuration * 100
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	return pct, true
}
