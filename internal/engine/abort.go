//go:build cgo

package engine

import (
	"context"
	"runtime/cgo"
	"unsafe"
)

// attemptContext resolves the cgo.Handle passed to whisper.cpp as abort user
// data back into the context of the running transcription attempt.
func attemptContext(userData unsafe.Pointer) (ctx context.Context, ok bool) {
	if userData == nil {
		return nil, false
	}
	handle := *(*cgo.Handle)(userData)
	if handle == 0 {
		return nil, false
	}
	// Value panics on a deleted handle.
	defer func() {
		if recover() != nil {
			ctx, ok = nil, false
		}
	}()
	ctx, ok = handle.Value().(context.Context)
	return ctx, ok
}

// attemptCancelled reports whether whisper.cpp should stop decoding. It only
// fires for callers that pass a cancellable context to Transcribe.
func attemptCancelled(userData unsafe.Pointer) bool {
	ctx, ok := attemptContext(userData)
	return ok && ctx.Err() != nil
}
