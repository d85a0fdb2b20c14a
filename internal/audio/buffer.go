package audio

import "time"

// SampleRate is the only rate the adapter accepts: mono PCM16 at 16 kHz.
const SampleRate = 16000

// Buffer holds contiguous, not-yet-finalised audio as normalised samples.
// It grows only at the tail and shrinks only by dropping a prefix.
// Buffer is not safe for concurrent use; the processing loop owns it.
type Buffer struct {
	samples    []float32
	sampleRate int
}

// NewBuffer returns an empty buffer for the given sample rate.
func NewBuffer(sampleRate int) *Buffer {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	return &Buffer{
		samples:    make([]float32, 0, sampleRate*30),
		sampleRate: sampleRate,
	}
}

// Append extends the tail with samples.
func (b *Buffer) Append(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// AppendPCM16 decodes raw little-endian PCM16 and appends it. It returns the
// number of samples added; an odd trailing byte is dropped.
func (b *Buffer) AppendPCM16(raw []byte) int {
	n := len(raw) / 2
	if n == 0 {
		return 0
	}
	start := len(b.samples)
	b.samples = append(b.samples, make([]float32, n)...)
	decodeInto(b.samples[start:], raw)
	return n
}

// Trim drops the prefix [0, k). Values past the end empty the buffer.
func (b *Buffer) Trim(k int) {
	if k <= 0 {
		return
	}
	if k >= len(b.samples) {
		b.samples = b.samples[:0]
		return
	}
	remaining := copy(b.samples, b.samples[k:])
	b.samples = b.samples[:remaining]
}

// Clear empties the buffer, keeping its capacity.
func (b *Buffer) Clear() {
	b.samples = b.samples[:0]
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Samples returns the buffered samples. The slice aliases the buffer and is
// only valid until the next mutating call.
func (b *Buffer) Samples() []float32 {
	return b.samples
}

// SampleRate reports the rate the buffer was created with.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Seconds returns the buffered audio length in seconds.
func (b *Buffer) Seconds() float64 {
	return float64(len(b.samples)) / float64(b.sampleRate)
}

// Duration returns the buffered audio length.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// SampleIndex converts a buffer-relative timestamp into a sample offset
// clamped to the current buffer length.
func (b *Buffer) SampleIndex(seconds float64) int {
	idx := int(seconds * float64(b.sampleRate))
	if idx < 0 {
		return 0
	}
	if idx > len(b.samples) {
		return len(b.samples)
	}
	return idx
}
