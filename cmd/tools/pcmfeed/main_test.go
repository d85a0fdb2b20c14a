package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
)

func TestFeedWritesEverythingInChunks(t *testing.T) {
	pcm := make([]byte, 10000)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	var out bytes.Buffer
	if err := feed(&out, pcm, 4096, 0); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !bytes.Equal(out.Bytes(), pcm) {
		t.Fatal("output differs from input")
	}
}

func TestLoadPCM(t *testing.T) {
	dir := t.TempDir()
	samples := []float32{0, 0.5, -0.5, 0.25}

	wav, err := audio.EncodeWAV(samples, audio.SampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	wavPath := filepath.Join(dir, "clip.WAV")
	if err := os.WriteFile(wavPath, wav, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := loadPCM(wavPath)
	if err != nil {
		t.Fatalf("loadPCM(wav): %v", err)
	}
	if len(got) != len(samples)*audio.BytesPerSample {
		t.Fatalf("unexpected payload length %d", len(got))
	}

	rawPath := filepath.Join(dir, "clip.pcm")
	if err := os.WriteFile(rawPath, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raw, err := loadPCM(rawPath)
	if err != nil || len(raw) != 3 {
		t.Fatalf("loadPCM(raw) = %v, %v", raw, err)
	}

	wav8k, _ := audio.EncodeWAV(samples, 8000)
	badPath := filepath.Join(dir, "narrow.wav")
	if err := os.WriteFile(badPath, wav8k, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := loadPCM(badPath); err == nil {
		t.Fatal("expected sample rate error")
	}
}
