package audio

import "encoding/binary"

// BytesPerSample is the width of one PCM16 sample.
const BytesPerSample = 2

// DecodePCM16 converts little-endian signed 16-bit samples into floats in
// [-1, 1). A trailing unpaired byte is ignored and not carried over.
func DecodePCM16(raw []byte) []float32 {
	n := len(raw) / BytesPerSample
	if n == 0 {
		return nil
	}
	samples := make([]float32, n)
	decodeInto(samples, raw)
	return samples
}

func decodeInto(dst []float32, raw []byte) {
	for i := range dst {
		u := binary.LittleEndian.Uint16(raw[BytesPerSample*i:])
		dst[i] = float32(int16(u)) / 32768.0
	}
}

// EncodePCM16 converts normalised samples back to little-endian PCM16,
// clamping out-of-range values.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[BytesPerSample*i:], uint16(floatToInt16(s)))
	}
	return out
}

func floatToInt16(s float32) int16 {
	if s >= 1.0 {
		return 32767
	}
	if s < -1.0 {
		return -32768
	}
	return int16(s * 32768.0)
}
