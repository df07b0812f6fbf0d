package bytesource

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func readAll(t *testing.T, w *Window) []byte {
	var out []byte
	for {
		b, err := w.ReadByte()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, b)
	}
}

func TestWindowReadsEverything(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 10000)
	w := NewWindow(iotest.OneByteReader(bytes.NewReader(data)), len(data)+1)
	assert.Equal(t, data, readAll(t, w))
	assert.Equal(t, uint64(len(data)), w.BytesRead())
}

func TestWindowExceeded(t *testing.T) {
	data := bytes.Repeat([]byte{1}, 100)
	w := NewWindow(bytes.NewReader(data), 10)

	for i := 0; i < 10; i++ {
		_, err := w.ReadByte()
		require.NoError(t, err)
	}
	_, err := w.ReadByte()
	require.ErrorIs(t, err, ErrWindowExceeded)

	w.ResetWindow()
	for i := 0; i < 10; i++ {
		_, err := w.ReadByte()
		require.NoError(t, err)
	}
}

func TestWindowResetKeepsLookahead(t *testing.T) {
	w := NewWindow(bytes.NewReader([]byte("abcdef")), 4)

	b, err := w.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)
	assert.Equal(t, 4, w.Buffered())

	w.ResetWindow()
	assert.Equal(t, 3, w.Buffered())

	var got []byte
	for range 3 {
		b, err := w.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, []byte("bcd"), got)

	w.ResetWindow()
	assert.Equal(t, []byte("ef"), readAll(t, w))
}

func TestWindowResetEveryByte(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1000)
	w := NewWindow(bytes.NewReader(data), 8)

	var out []byte
	for {
		w.ResetWindow()
		b, err := w.ReadByte()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, b)
		assert.LessOrEqual(t, w.Buffered(), 8)
	}
	assert.Equal(t, data, out)
}

func TestWindowSourceError(t *testing.T) {
	errBoom := errors.New("boom")
	w := NewWindow(iotest.ErrReader(errBoom), 0)
	_, err := w.ReadByte()
	require.ErrorIs(t, err, errBoom)
	_, err = w.ReadByte()
	require.ErrorIs(t, err, errBoom)
}

func TestWindowClose(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader([]byte("abc"))}
	w := NewWindow(src, 0)
	require.NoError(t, w.Close())
	assert.True(t, src.closed)
	_, err := w.ReadByte()
	require.Error(t, err)

	src.closed = false
	require.NoError(t, w.Close())
	assert.False(t, src.closed)

	require.NoError(t, NewWindow(bytes.NewReader(nil), 0).Close())
}
