// Package finalize decides which segments of a transcription are stable,
// how far the audio buffer can be trimmed, and which trailing text is still
// an evolving partial.
package finalize

import (
	"math"
	"strings"
	"time"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/engine"
)

// DefaultMaxSpan bounds how long a single unfinished segment may grow.
const DefaultMaxSpan = 10 * time.Second

// Policy holds the static finalization parameters.
type Policy struct {
	SampleRate int
	MaxSpan    time.Duration
}

// NewPolicy returns a Policy, substituting defaults for zero values.
func NewPolicy(sampleRate int, maxSpan time.Duration) Policy {
	if sampleRate <= 0 {
		sampleRate = audio.SampleRate
	}
	if maxSpan <= 0 {
		maxSpan = DefaultMaxSpan
	}
	return Policy{SampleRate: sampleRate, MaxSpan: maxSpan}
}

// Outcome is the result of planning one transcription response.
type Outcome struct {
	// Finals are the stable segments, text trimmed, in order.
	Finals []engine.Segment
	// Partial is the trimmed text of the trailing unstable segment.
	Partial    string
	HasPartial bool
	// TrimTo is the sample index the buffer is cut at; 0 leaves it untouched.
	TrimTo int
	// Clear empties the buffer regardless of TrimTo.
	Clear bool
}

// FinalCount returns how many leading segments are stable.
func (p Policy) FinalCount(segments []engine.Segment, forced bool, bufferLen int) int {
	switch {
	case len(segments) == 0:
		return 0
	case forced:
		return len(segments)
	case len(segments) > 1:
		return len(segments) - 1
	case p.exceedsMaxSpan(bufferLen):
		return 1
	default:
		return 0
	}
}

func (p Policy) exceedsMaxSpan(bufferLen int) bool {
	limit := int64(p.MaxSpan) * int64(p.SampleRate) / int64(time.Second)
	return int64(bufferLen) > limit
}

// Plan computes the outcome for segments returned from a buffer of
// bufferLen samples. It does not touch the buffer.
func (p Policy) Plan(segments []engine.Segment, forced bool, bufferLen int) Outcome {
	var out Outcome
	if len(segments) == 0 {
		out.Clear = forced
		return out
	}

	count := p.FinalCount(segments, forced, bufferLen)
	if count > 0 {
		out.Finals = make([]engine.Segment, 0, count)
		bufferSeconds := float64(bufferLen) / float64(p.SampleRate)
		for _, seg := range segments[:count] {
			start := finiteSeconds(seg.Start, 0, bufferSeconds)
			out.Finals = append(out.Finals, engine.Segment{
				Start: start,
				End:   finiteSeconds(seg.End, start, bufferSeconds),
				Text:  strings.TrimSpace(seg.Text),
			})
		}
	}

	if forced {
		out.Clear = true
		return out
	}

	if count > 0 {
		out.TrimTo = p.sampleIndex(segments[count-1].End, bufferLen)
	}
	if count < len(segments) {
		out.Partial = strings.TrimSpace(segments[len(segments)-1].Text)
		out.HasPartial = true
	}
	return out
}

func (p Policy) sampleIndex(seconds float64, bufferLen int) int {
	pos := seconds * float64(p.SampleRate)
	switch {
	case math.IsNaN(pos), pos <= 0:
		return 0
	case pos >= float64(bufferLen):
		return bufferLen
	}
	return int(pos)
}

// finiteSeconds replaces NaN with low and infinities with the nearest bound
// so timestamps stay encodable. Finite values pass through unchanged.
func finiteSeconds(v, low, high float64) float64 {
	switch {
	case math.IsNaN(v):
		return low
	case math.IsInf(v, 1):
		return math.Max(low, high)
	case math.IsInf(v, -1):
		return low
	}
	return v
}

// Apply trims or clears buf according to the outcome and returns the number
// of samples removed.
func Apply(out Outcome, buf *audio.Buffer) int {
	before := buf.Len()
	switch {
	case out.Clear:
		buf.Clear()
	case out.TrimTo > 0:
		buf.Trim(out.TrimTo)
	}
	return before - buf.Len()
}
