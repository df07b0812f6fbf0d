package bytesource

import (
	"errors"
	"fmt"
	"io"

	"github.com/xaionaro-go/datacounter"
)

const (
	// DefaultWindowSize is the largest single segment a Window accepts by default.
	DefaultWindowSize = 1 << 22

	initialBufferSize = 1 << 15
)

// ErrWindowExceeded means a single segment did not fit into the lookahead
// window. This is a configuration error: the window is too small for the stream.
var ErrWindowExceeded = errors.New("the segment does not fit into the lookahead window")

// ByteSource is the byte-level input consumed by the sequence scanner.
type ByteSource interface {
	ReadByte() (byte, error)

	// ResetWindow starts a fresh lookahead window, so that the next
	// segment may use the whole window again.
	ResetWindow()
}

var _ ByteSource = (*Window)(nil)
var _ io.ByteReader = (*Window)(nil)
var _ io.Closer = (*Window)(nil)

// Window is a bounded re-readable buffer over an io.Reader.
//
// Every byte read since the last ResetWindow is retained in the buffer,
// thus the amount of data a single segment may span is bounded by Size.
type Window struct {
	Source  io.Reader
	Counter *datacounter.ReaderCounter
	Size    int

	buf    []byte
	start  int
	pos    int
	err    error
	closed bool
}

// NewWindow wraps the reader. A non-positive size means DefaultWindowSize.
func NewWindow(r io.Reader, size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	counter := datacounter.NewReaderCounter(r)
	return &Window{
		Source:  r,
		Counter: counter,
		Size:    size,
		buf:     make([]byte, 0, min(size, initialBufferSize)),
	}
}

// ReadByte implements io.ByteReader.
func (w *Window) ReadByte() (byte, error) {
	if w.pos >= len(w.buf) {
		if err := w.fill(); err != nil {
			return 0, err
		}
	}
	b := w.buf[w.pos]
	w.pos++
	return b, nil
}

func (w *Window) fill() error {
	if w.err != nil {
		return w.err
	}
	if w.start > 0 {
		n := copy(w.buf, w.buf[w.start:])
		w.buf = w.buf[:n]
		w.pos -= w.start
		w.start = 0
	}
	if len(w.buf) >= w.Size {
		return fmt.Errorf("%w: already buffered %d bytes", ErrWindowExceeded, len(w.buf))
	}
	if len(w.buf) == cap(w.buf) {
		newCap := min(cap(w.buf)*2, w.Size)
		newBuf := make([]byte, len(w.buf), newCap)
		copy(newBuf, w.buf)
		w.buf = newBuf
	}

	for range 100 {
		n, err := w.Counter.Read(w.buf[len(w.buf):cap(w.buf)])
		w.buf = w.buf[:len(w.buf)+n]
		if err != nil {
			w.err = err
		}
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
	w.err = io.ErrNoProgress
	return w.err
}

// ResetWindow drops the consumed part of the window and keeps the unread
// lookahead. The buffer is compacted lazily on the next fill.
func (w *Window) ResetWindow() {
	w.start = w.pos
}

// Buffered returns the amount of bytes held by the window, consumed or not.
func (w *Window) Buffered() int {
	return len(w.buf) - w.start
}

// BytesRead returns the total amount of bytes pulled from the source.
func (w *Window) BytesRead() uint64 {
	return w.Counter.Count()
}

// Close closes the source if it is closable. Repeated calls do nothing.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.buf = w.buf[:0]
	w.start, w.pos = 0, 0
	if w.err == nil {
		w.err = io.ErrClosedPipe
	}
	closer, ok := w.Source.(io.Closer)
	if !ok {
		return nil
	}
	return closer.Close()
}
