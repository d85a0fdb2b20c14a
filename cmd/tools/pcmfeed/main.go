// Command pcmfeed streams a WAV or raw PCM16 file to stdout at real-time pace so the
// adapter can be exercised from a shell pipeline:
//
//	go run ./cmd/tools/pcmfeed --input testdata/test.wav | NUPI_ADAPTER_USE_STUB_ENGINE=1 go run ./cmd/adapter
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/ingest"
)

func main() {
	var (
		input   = flag.String("input", "", "WAV (16 kHz mono PCM16) or raw .pcm file")
		chunk   = flag.Int("chunk", ingest.DefaultChunkSize, "bytes written per chunk")
		speed   = flag.Float64("speed", 1.0, "playback speed multiplier; 0 writes without pacing")
		silence = flag.Duration("tail-silence", 0, "pause after the last chunk before closing stdout")
		pad     = flag.Duration("pad", 0, "digital silence appended after the audio")
	)
	flag.Parse()

	if strings.TrimSpace(*input) == "" {
		fmt.Fprintln(os.Stderr, "pcmfeed: --input must not be empty")
		os.Exit(2)
	}
	if *chunk < audio.BytesPerSample {
		fmt.Fprintf(os.Stderr, "pcmfeed: --chunk must be >= %d\n", audio.BytesPerSample)
		os.Exit(2)
	}

	pcm, err := loadPCM(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pcmfeed: %v\n", err)
		os.Exit(1)
	}
	if *pad > 0 {
		padBytes := int(pad.Seconds()*audio.SampleRate) * audio.BytesPerSample
		pcm = append(pcm, make([]byte, padBytes)...)
	}

	if err := feed(os.Stdout, pcm, *chunk, *speed); err != nil {
		fmt.Fprintf(os.Stderr, "pcmfeed: write: %v\n", err)
		os.Exit(1)
	}
	if *silence > 0 {
		time.Sleep(*silence)
	}
}

func loadPCM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return data, nil
	}
	pcm, rate, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if rate != audio.SampleRate {
		return nil, fmt.Errorf("%s: sample rate %d, want %d", path, rate, audio.SampleRate)
	}
	return pcm, nil
}

func feed(w io.Writer, pcm []byte, chunk int, speed float64) error {
	bytesPerSecond := float64(audio.SampleRate * audio.BytesPerSample)
	start := time.Now()
	for offset := 0; offset < len(pcm); offset += chunk {
		end := offset + chunk
		if end > len(pcm) {
			end = len(pcm)
		}
		if _, err := w.Write(pcm[offset:end]); err != nil {
			return err
		}
		if speed <= 0 {
			continue
		}
		due := time.Duration(float64(end) / bytesPerSecond / speed * float64(time.Second))
		if wait := due - time.Since(start); wait > 0 {
			time.Sleep(wait)
		}
	}
	return nil
}
