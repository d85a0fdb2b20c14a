package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// DefaultChunkSize is the read size used for the input stream.
const DefaultChunkSize = 4096

// Ingestor moves raw bytes from the input stream into a Mailbox. It never
// decodes or inspects the data.
type Ingestor struct {
	reader    io.Reader
	chunkSize int
	log       *slog.Logger
}

// NewIngestor returns an Ingestor reading chunkSize bytes at a time.
func NewIngestor(reader io.Reader, chunkSize int, logger *slog.Logger) *Ingestor {
	if reader == nil {
		panic("ingest: reader must not be nil")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		reader:    reader,
		chunkSize: chunkSize,
		log:       logger.With("component", "ingest"),
	}
}

// Run reads until end of stream, a read failure or ctx cancellation. It
// returns nil on a clean end of stream and the read error otherwise; it
// never panics past its own boundary. Callers typically run it on its own
// goroutine and cancel the session when it returns.
func (i *Ingestor) Run(ctx context.Context, mailbox *Mailbox) (err error) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("ingestor panicked", "panic", r)
			err = errors.New("ingest: reader panicked")
		}
	}()

	var (
		chunks int
		total  int
	)
	for {
		if ctx.Err() != nil {
			i.log.Debug("ingestor stopped by context", "chunks", chunks, "bytes", total)
			return nil
		}

		buf := make([]byte, i.chunkSize)
		n, readErr := i.reader.Read(buf)
		if n > 0 {
			mailbox.Push(buf[:n])
			chunks++
			total += n
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				i.log.Info("input stream closed", "chunks", chunks, "bytes", total)
				return nil
			}
			i.log.Error("input stream failure", "error", readErr, "chunks", chunks, "bytes", total)
			return readErr
		}
		if n == 0 {
			// A zero-length read without an error is treated as end of stream.
			i.log.Info("input stream returned no data", "chunks", chunks, "bytes", total)
			return nil
		}
	}
}
