//go:build whispercpp

package engine

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build -L${SRCDIR}/../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include "stdlib.h"
#include "include/whisper.h"
#include "ggml.h"

bool whisperGoAbort(void * user_data);
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/cgo"
	"strings"
	"sync"
	"unsafe"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
)

// whisper.cpp reports segment timestamps in 10 ms ticks.
const centisecond = 0.01

func NativeAvailable() bool { return true }

// NativeEngine runs whisper.cpp in-process. Every Transcribe call uses a fresh
// state and carries no prompt between calls.
type NativeEngine struct {
	mu   sync.Mutex
	ctx  *C.struct_whisper_context
	opts NativeOptions
}

func NewNativeEngine(modelPath string, opts NativeOptions) (Engine, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path required")
	}
	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))

	cParams := C.whisper_context_default_params()
	cParams.use_gpu = C.bool(false)
	if opts.UseGPU != nil {
		cParams.use_gpu = C.bool(*opts.UseGPU)
	}
	if opts.FlashAttention != nil {
		cParams.flash_attn = C.bool(*opts.FlashAttention)
	}

	ctx := C.whisper_init_from_file_with_params(cPath, cParams)
	if ctx == nil {
		return nil, fmt.Errorf("whisper: failed to initialise context for %s", modelPath)
	}

	return &NativeEngine{ctx: ctx, opts: opts}, nil
}

func (e *NativeEngine) Transcribe(ctx context.Context, samples []float32) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return nil, errors.New("whisper: engine closed")
	}

	state := C.whisper_init_state(e.ctx)
	if state == nil {
		return nil, errors.New("whisper: failed to initialise state")
	}
	defer C.whisper_free_state(state)

	params := e.fullParams()

	lang := normaliseLanguage(e.opts.Language, "")
	cLang := C.CString(lang)
	defer C.free(unsafe.Pointer(cLang))
	params.language = cLang
	params.detect_language = C.bool(false)
	if strings.EqualFold(lang, "auto") {
		params.detect_language = C.bool(true)
	}

	handle := cgo.NewHandle(ctx)
	defer handle.Delete()
	params.abort_callback = (C.ggml_abort_callback)(C.whisperGoAbort)
	params.abort_callback_user_data = unsafe.Pointer(&handle)

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	if ret := C.whisper_full_with_state(e.ctx, state, params, cSamples, C.int(len(samples))); ret != 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("whisper: inference failed with code %d", int(ret))
	}

	total := float64(len(samples)) / float64(audio.SampleRate)
	return orderSegments(collectSegments(state), total), nil
}

func (e *NativeEngine) fullParams() C.struct_whisper_full_params {
	beam := 1
	if e.opts.BeamSize != nil && *e.opts.BeamSize > 0 {
		beam = *e.opts.BeamSize
	}

	var strategy C.enum_whisper_sampling_strategy = C.WHISPER_SAMPLING_GREEDY
	if beam > 1 {
		strategy = C.WHISPER_SAMPLING_BEAM_SEARCH
	}
	params := C.whisper_full_default_params(strategy)
	if beam > 1 {
		params.beam_search.beam_size = C.int(beam)
	}

	threads := runtime.NumCPU()
	if threads > 8 {
		threads = 8
	}
	if e.opts.Threads != nil && *e.opts.Threads > 0 {
		threads = *e.opts.Threads
	}
	params.n_threads = C.int(threads)

	params.print_progress = C.bool(false)
	params.print_realtime = C.bool(false)
	params.print_timestamps = C.bool(false)
	params.print_special = C.bool(false)
	params.translate = C.bool(false)
	params.no_context = C.bool(true)
	params.single_segment = C.bool(false)
	params.suppress_blank = C.bool(true)
	return params
}

func (e *NativeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		C.whisper_free(e.ctx)
		e.ctx = nil
	}
	return nil
}

func collectSegments(state *C.struct_whisper_state) []Segment {
	count := int(C.whisper_full_n_segments_from_state(state))
	if count == 0 {
		return nil
	}
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		idx := C.int(i)
		segments = append(segments, Segment{
			Start: float64(C.whisper_full_get_segment_t0_from_state(state, idx)) * centisecond,
			End:   float64(C.whisper_full_get_segment_t1_from_state(state, idx)) * centisecond,
			Text:  C.GoString(C.whisper_full_get_segment_text_from_state(state, idx)),
		})
	}
	return segments
}

//export whisperGoAbort
func whisperGoAbort(userData unsafe.Pointer) C.bool {
	if attemptCancelled(userData) {
		return C.bool(true)
	}
	return C.bool(false)
}
