package engine

// NativeOptions configures the native Whisper backend. Nil fields fall back
// to whisper.cpp defaults.
type NativeOptions struct {
	UseGPU         *bool
	FlashAttention *bool
	Threads        *int
	// BeamSize selects beam search when > 1; 1 means greedy sampling.
	BeamSize *int
	// Language is the decoding hint; "auto" enables detection.
	Language string
}
