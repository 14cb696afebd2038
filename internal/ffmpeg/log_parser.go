package ffmpeg

import (
	"regexp"
	"strings"
)

var (
	// "[mp4 @ 0x55d0c8a4c2c0] " prefixes messages raised by one component.
	componentPrefix = regexp.MustCompile(`^\[[\w:-]+ @ 0x[0-9a-f]+\] `)
	errorMarkers    = []string{"Error ", "Invalid ", "No such file", "Conversion failed", "not supported", "Unknown encoder"}
)

// ParseLogLevel assigns a log level to one line of encoder output, which is
// printed without level tags at the default log level. Status lines and
// banners are debug, component messages are warnings and failures are
// errors. Lines tagged by "-loglevel level+info" keep their tag.
func ParseLogLevel(line string) (level, msg string) {
	if lvl, rest, ok := taggedLevel(line); ok {
		return lvl, rest
	}
	switch {
	case strings.HasPrefix(line, "frame="), strings.HasPrefix(line, "size="),
		strings.HasPrefix(line, "Press [q]"), strings.HasPrefix(line, "  "):
		return "debug", line
	case containsAny(line, errorMarkers):
		return "error", line
	case componentPrefix.MatchString(line):
		return "warning", line
	}
	return "info", line
}

// taggedLevel strips "[level] " or "[component @ 0x...] [level] ", keeping
// the component.
func taggedLevel(line string) (level, msg string, ok bool) {
	component := componentPrefix.FindString(line)
	rest := line[len(component):]
	if len(rest) < 3 || rest[0] != '[' {
		return "", "", false
	}
	end := strings.Index(rest, "] ")
	if end == -1 || !isLogLevel(rest[1:end]) {
		return "", "", false
	}
	return rest[1:end], component + rest[end+2:], true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
