package engine

import (
	"math"
	"strings"
)

// blankMarkers are placeholder transcripts Whisper produces for non-speech.
var blankMarkers = []string{"[BLANK_AUDIO]", "[SILENCE]", "(silence)"}

func normaliseLanguage(candidate, fallback string) string {
	if trimmed := strings.TrimSpace(candidate); trimmed != "" {
		return trimmed
	}
	if trimmed := strings.TrimSpace(fallback); trimmed != "" {
		return trimmed
	}
	return "auto"
}

// isBlank reports whether text carries no speech.
func isBlank(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	for _, marker := range blankMarkers {
		if strings.EqualFold(trimmed, marker) {
			return true
		}
	}
	return false
}

// orderSegments drops blank segments and clamps timestamps so every segment
// lies within [0, total] with Start <= End and starts no earlier than the
// previous one. Non-finite timestamps collapse onto the previous end.
func orderSegments(in []Segment, total float64) []Segment {
	out := make([]Segment, 0, len(in))
	var floor float64
	for _, seg := range in {
		if isBlank(seg.Text) {
			continue
		}
		start, end := seg.Start, seg.End
		if math.IsNaN(start) || math.IsInf(start, 0) {
			start = floor
		}
		if math.IsNaN(end) || math.IsInf(end, -1) {
			end = start
		}
		if math.IsInf(end, 1) && total <= 0 {
			end = start
		}
		if start < floor {
			start = floor
		}
		if total > 0 && end > total {
			end = total
		}
		if end < start {
			end = start
		}
		out = append(out, Segment{Start: start, End: end, Text: seg.Text})
		floor = end
	}
	return out
}
