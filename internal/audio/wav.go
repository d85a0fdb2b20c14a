package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps normalised mono samples in a 16-bit PCM WAV container.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, errors.New("audio: cannot encode empty samples")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * BytesPerSample)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * BytesPerSample),
		BlockAlign:    BytesPerSample,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("audio: write wav header: %w", err)
	}
	buf.Write(EncodePCM16(samples))
	return buf.Bytes(), nil
}

// DecodeWAV extracts the raw PCM16 payload and sample rate from a mono
// 16-bit WAV file. Unknown chunks are skipped.
func DecodeWAV(data []byte) ([]byte, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("audio: invalid wav header")
	}

	offset := 12
	var (
		sampleRate    int
		audioFormat   uint16
		channels      uint16
		bitsPerSample uint16
		payload       []byte
	)

	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		chunkStart := offset + 8
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > len(data) {
			return nil, 0, fmt.Errorf("audio: chunk %s out of range", chunkID)
		}
		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, errors.New("audio: fmt chunk too small")
			}
			audioFormat = binary.LittleEndian.Uint16(data[chunkStart : chunkStart+2])
			channels = binary.LittleEndian.Uint16(data[chunkStart+2 : chunkStart+4])
			sampleRate = int(binary.LittleEndian.Uint32(data[chunkStart+4 : chunkStart+8]))
			bitsPerSample = binary.LittleEndian.Uint16(data[chunkStart+14 : chunkStart+16])
		case "data":
			payload = data[chunkStart:chunkEnd]
		}
		// Chunks are word aligned.
		offset = chunkEnd
		if chunkSize%2 == 1 {
			offset++
		}
	}

	switch {
	case audioFormat != 1:
		return nil, 0, fmt.Errorf("audio: unsupported wav format %d", audioFormat)
	case channels != 1:
		return nil, 0, fmt.Errorf("audio: expected mono audio, got %d channels", channels)
	case bitsPerSample != 16:
		return nil, 0, fmt.Errorf("audio: expected 16-bit PCM, got %d", bitsPerSample)
	case len(payload) == 0:
		return nil, 0, errors.New("audio: no data chunk found")
	}
	return payload, sampleRate, nil
}
