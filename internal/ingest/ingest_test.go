package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"testing/iotest"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMailboxDrainPreservesOrder(t *testing.T) {
	t.Parallel()

	mb := NewMailbox()
	if got := mb.Drain(); got != nil {
		t.Fatalf("expected nil drain on empty mailbox, got %v", got)
	}
	mb.Push([]byte("a"))
	mb.Push([]byte("b"))
	mb.Push([]byte("c"))
	if mb.Len() != 3 {
		t.Fatalf("expected 3 pending chunks, got %d", mb.Len())
	}

	got := mb.Drain()
	if string(bytes.Join(got, nil)) != "abc" {
		t.Fatalf("unexpected drain order: %q", got)
	}
	if mb.Len() != 0 {
		t.Fatalf("expected empty mailbox after drain, got %d", mb.Len())
	}
}

func TestMailboxNotifyCoalesces(t *testing.T) {
	t.Parallel()

	mb := NewMailbox()
	mb.Push([]byte{1})
	mb.Push([]byte{2})

	select {
	case <-mb.Notify():
	default:
		t.Fatalf("expected pending notification")
	}
	select {
	case <-mb.Notify():
		t.Fatalf("expected notifications to coalesce")
	default:
	}
}

func TestMailboxConcurrentPushDrain(t *testing.T) {
	t.Parallel()

	const total = 1000
	mb := NewMailbox()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			mb.Push([]byte{byte(i)})
		}
	}()

	var received []byte
	deadline := time.After(5 * time.Second)
	for len(received) < total {
		select {
		case <-mb.Notify():
		case <-time.After(time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out after %d chunks", len(received))
		}
		for _, chunk := range mb.Drain() {
			received = append(received, chunk...)
		}
	}
	wg.Wait()

	for i, b := range received {
		if b != byte(i) {
			t.Fatalf("chunk %d out of order: got %d", i, b)
		}
	}
}

func TestIngestorChunksUntilEOF(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte{0xab}, 10000)
	mb := NewMailbox()
	ing := NewIngestor(bytes.NewReader(payload), 4096, discardLogger())

	if err := ing.Run(context.Background(), mb); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	chunks := mb.Drain()
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 4096 || len(chunks[1]) != 4096 || len(chunks[2]) != 1808 {
		t.Fatalf("unexpected chunk sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if !bytes.Equal(bytes.Join(chunks, nil), payload) {
		t.Fatalf("chunks were modified")
	}
}

func TestIngestorShortReadsPassThrough(t *testing.T) {
	t.Parallel()

	payload := []byte{1, 2, 3, 4, 5}
	mb := NewMailbox()
	ing := NewIngestor(iotest.OneByteReader(bytes.NewReader(payload)), 0, discardLogger())

	if err := ing.Run(context.Background(), mb); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	chunks := mb.Drain()
	if len(chunks) != len(payload) {
		t.Fatalf("expected %d single-byte chunks, got %d", len(payload), len(chunks))
	}
}

func TestIngestorReturnsReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reader := io.MultiReader(bytes.NewReader([]byte{1, 2}), iotest.ErrReader(boom))
	mb := NewMailbox()
	ing := NewIngestor(reader, 16, discardLogger())

	err := ing.Run(context.Background(), mb)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := mb.Drain(); len(got) != 1 {
		t.Fatalf("expected data read before the failure to be delivered, got %d chunks", len(got))
	}
}

type panicReader struct{}

func (panicReader) Read([]byte) (int, error) { panic("reader exploded") }

func TestIngestorRecoversPanic(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(panicReader{}, 16, discardLogger())
	if err := ing.Run(context.Background(), NewMailbox()); err == nil {
		t.Fatalf("expected error from panicking reader")
	}
}

func TestIngestorStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mb := NewMailbox()
	ing := NewIngestor(bytes.NewReader([]byte{1, 2, 3}), 16, discardLogger())
	if err := ing.Run(ctx, mb); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if mb.Len() != 0 {
		t.Fatalf("expected no reads after cancellation")
	}
}
