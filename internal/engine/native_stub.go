//go:build !whispercpp

package engine

// NativeAvailable reports whether the binary was built with the whispercpp tag.
func NativeAvailable() bool { return false }

// NewNativeEngine always fails without the whispercpp build tag.
func NewNativeEngine(string, NativeOptions) (Engine, error) {
	return nil, ErrNativeEngineUnavailable
}
