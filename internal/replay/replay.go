// Package replay records and plays back per-tick input.
//
// A recording is a zstd-compressed msgpack stream: one Header followed by
// one input.Raw per tick.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Faultbox/skyrunner/internal/input"
)

// Version is the recording format version written by this package.
const Version = 1

// ErrVersion is returned when a recording uses an unsupported format version.
var ErrVersion = errors.New("replay: unsupported recording version")

// Header describes a recording.
type Header struct {
	Version     int       `msgpack:"v"`
	Environment string    `msgpack:"env"`
	TickRate    int       `msgpack:"rate"`
	Created     time.Time `msgpack:"created"`
}

// Writer appends ticks to a recording.
type Writer struct {
	f   *os.File // nil when writing to a caller-owned stream
	zw  *zstd.Encoder
	enc *msgpack.Encoder
	n   int
}

// Create creates a recording file at path and writes its header.
func Create(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// NewWriter starts a recording on w and writes its header.
// Close flushes the stream but does not close w.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if h.Version == 0 {
		h.Version = Version
	}
	if h.Created.IsZero() {
		h.Created = time.Now().UTC()
	}

	enc := msgpack.NewEncoder(zw)
	if err := enc.Encode(h); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	return &Writer{zw: zw, enc: enc}, nil
}

// Write appends one tick of input.
func (w *Writer) Write(raw input.Raw) error {
	if err := w.enc.Encode(raw); err != nil {
		return fmt.Errorf("failed to encode tick %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Ticks returns the number of ticks written.
func (w *Writer) Ticks() int {
	return w.n
}

// Close flushes the compressed stream and closes the file, if any.
func (w *Writer) Close() error {
	err := w.zw.Close()
	if err != nil {
		err = fmt.Errorf("failed to close zstd writer: %w", err)
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reader plays back a recording.
type Reader struct {
	f      *os.File
	zr     *zstd.Decoder
	dec    *msgpack.Decoder
	header Header
	n      int
}

// Open opens the recording at path and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.f = f
	return r, nil
}

// NewReader reads a recording header from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}

	dec := msgpack.NewDecoder(zr)
	var h Header
	if err := dec.Decode(&h); err != nil {
		zr.Close()
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	if h.Version != Version {
		zr.Close()
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return &Reader{zr: zr, dec: dec, header: h}, nil
}

// Header returns the recording header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next tick of input, or io.EOF at the end of the recording.
func (r *Reader) Next() (input.Raw, error) {
	var raw input.Raw
	if err := r.dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return input.Raw{}, io.EOF
		}
		return input.Raw{}, fmt.Errorf("failed to decode tick %d: %w", r.n, err)
	}
	r.n++
	return raw, nil
}

// Close releases the decoder and closes the file, if any.
func (r *Reader) Close() error {
	r.zr.Close()
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}
