package adapterinfo

// Version is overridden at build time with -ldflags "-X ...adapterinfo.Version=...".
var Version = "0.1.0-dev"

// Metadata captures static identifiers for the adapter. Centralising the values
// makes it easy to clone this repository for new adapters.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
}

// Info describes the current adapter.
var Info = Metadata{
	Name:        "Nupi Whisper Streaming STT",
	BinaryName:  "plugin-stt-stream-whisper",
	Slug:        "stt-stream-whisper",
	Description: "Streaming speech-to-text over stdin/stdout backed by Whisper.",
	GeneratorID: "stt-stream-whisper",
}

// SessionMetadata produces the standard attributes logged when a session
// starts.
func SessionMetadata(engine, modelVariant, language string) map[string]string {
	return map[string]string{
		"generator":     Info.GeneratorID,
		"version":       Version,
		"engine":        engine,
		"model_variant": modelVariant,
		"language":      language,
	}
}
