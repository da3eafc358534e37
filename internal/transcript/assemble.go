// Package transcript assembles recognized speech segments into one transcript.
package transcript

import "strings"

// Assemble merges recognizer segments in order. Consecutive segments where one
// extends the other collapse into the longer one, and whitespace is normalized.
func Assemble(segments []string) string {
	merged := make([]string, 0, len(segments))
	for _, segment := range segments {
		merged = appendSegment(merged, segment)
	}
	return strings.Join(merged, " ")
}

func appendSegment(segments []string, segment string) []string {
	segment = clean(segment)
	if segment == "" {
		return segments
	}
	if len(segments) == 0 {
		return append(segments, segment)
	}

	last := segments[len(segments)-1]
	switch {
	case segment == last, strings.HasPrefix(last, segment):
		return segments
	case strings.HasPrefix(segment, last):
		segments[len(segments)-1] = segment
		return segments
	default:
		return append(segments, segment)
	}
}

func clean(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
