package sequencescanner

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mjpegview/pkg/bytesource"
)

var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegStop  = []byte{0xFF, 0xD9}
)

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func newScanner(t *testing.T, data []byte, start, stop []byte) *Scanner {
	s, err := New(bytesource.NewWindow(bytes.NewReader(data), 0), start, stop)
	require.NoError(t, err)
	return s
}

// nextSegment reads one segment via ReadByte; ok is false on the end of the stream.
func nextSegment(t *testing.T, s *Scanner) (_ []byte, ok bool) {
	var seg []byte
	for {
		c, err := s.ReadByte()
		switch {
		case err == nil:
			seg = append(seg, c)
		case errors.Is(err, ErrEndOfSegment):
			return seg, true
		case errors.Is(err, ErrEndOfStream):
			return seg, false
		default:
			require.NoError(t, err)
		}
	}
}

func TestNewValidation(t *testing.T) {
	src := bytesource.NewWindow(bytes.NewReader(nil), 0)

	_, err := New(src, nil, jpegStop)
	require.ErrorIs(t, err, ErrInvalidMarker)

	_, err = New(src, jpegStart, []byte{})
	require.ErrorIs(t, err, ErrInvalidMarker)

	_, err = New(nil, jpegStart, jpegStop)
	require.ErrorIs(t, err, ErrNilSource)
}

func TestMarkerFraming(t *testing.T) {
	for _, tc := range []struct {
		name    string
		prefix  []byte
		payload []byte
		suffix  []byte
	}{
		{name: "empty", prefix: nil, payload: nil, suffix: nil},
		{name: "junk_around", prefix: []byte("junk"), payload: []byte{1, 2, 3}, suffix: []byte("tail")},
		{name: "prefix_ends_with_partial_start", prefix: []byte{0x00, 0xFF}, payload: []byte{0x10}, suffix: nil},
		{name: "payload_contains_start", prefix: nil, payload: []byte{0xFF, 0xD8, 0x42}, suffix: nil},
		{name: "payload_ends_with_partial_stop", prefix: nil, payload: []byte{0x01, 0xFF}, suffix: nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			second := concat(jpegStart, []byte("second"), jpegStop)
			data := concat(tc.prefix, jpegStart, tc.payload, jpegStop, tc.suffix, second, tc.suffix)
			s := newScanner(t, data, jpegStart, jpegStop)

			seg, ok := nextSegment(t, s)
			require.True(t, ok)
			assert.Equal(t, concat(jpegStart, tc.payload, jpegStop), seg)

			seg, ok = nextSegment(t, s)
			require.True(t, ok)
			assert.Equal(t, second, seg)

			_, ok = nextSegment(t, s)
			require.False(t, ok)
			assert.True(t, s.IsEnded())
			assert.NoError(t, s.Err())
		})
	}
}

func TestNoFalseStop(t *testing.T) {
	start := []byte("<<")
	stop := []byte("END!")
	payload := []byte("EN-ENDxEND")
	data := concat([]byte("..."), start, payload, stop)
	s := newScanner(t, data, start, stop)

	seg, ok := nextSegment(t, s)
	require.True(t, ok)
	assert.Equal(t, concat(start, payload, stop), seg)
}

func TestStopRecheckAfterMismatch(t *testing.T) {
	// The second 0xFF breaks the partial match and starts a new one.
	data := concat(jpegStart, []byte{0x01, 0xFF, 0xFF, 0xD9}, []byte{0x77})
	s := newScanner(t, data, jpegStart, jpegStop)

	seg, ok := nextSegment(t, s)
	require.True(t, ok)
	assert.Equal(t, concat(jpegStart, []byte{0x01, 0xFF, 0xFF, 0xD9}), seg)
}

func TestRestartIdempotence(t *testing.T) {
	data := concat(jpegStart, []byte("first-payload"), jpegStop, jpegStart, []byte("2"), jpegStop)

	s := newScanner(t, data, jpegStart, jpegStop)
	for range 5 {
		_, err := s.ReadByte()
		require.NoError(t, err)
	}
	s.Restart()
	restarted, ok := nextSegment(t, s)
	require.True(t, ok)

	// a fresh scanner over the same remaining bytes
	fresh := newScanner(t, data[5:], jpegStart, jpegStop)
	expected, ok := nextSegment(t, fresh)
	require.True(t, ok)

	assert.Equal(t, expected, restarted)
	assert.Equal(t, concat(jpegStart, []byte("2"), jpegStop), restarted)
}

func TestStickyEnd(t *testing.T) {
	s := newScanner(t, []byte("no markers at all"), jpegStart, jpegStop)

	_, err := s.ReadByte()
	require.ErrorIs(t, err, ErrEndOfStream)
	assert.True(t, s.IsEnded())

	s.Restart()
	for range 3 {
		_, err := s.ReadByte()
		require.ErrorIs(t, err, ErrEndOfStream)
	}
	n, err := s.Read(make([]byte, 10))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestTruncatedSegmentEndsStream(t *testing.T) {
	data := concat(jpegStart, []byte{1, 2, 3, 0xFF})
	s := newScanner(t, data, jpegStart, jpegStop)

	seg, ok := nextSegment(t, s)
	require.False(t, ok)
	assert.Equal(t, concat(jpegStart, []byte{1, 2, 3, 0xFF}), seg)
	assert.True(t, s.IsEnded())
	assert.NoError(t, s.Err())
}

func TestSourceFailure(t *testing.T) {
	errBoom := errors.New("boom")
	src := io.MultiReader(bytes.NewReader(concat(jpegStart, []byte{1})), iotest.ErrReader(errBoom))
	s, err := New(bytesource.NewWindow(src, 0), jpegStart, jpegStop)
	require.NoError(t, err)

	_, ok := nextSegment(t, s)
	require.False(t, ok)
	require.ErrorIs(t, s.Err(), errBoom)
}

func TestWindowExceededIsFatal(t *testing.T) {
	data := concat(jpegStart, bytes.Repeat([]byte{0x11}, 64), jpegStop)
	s, err := New(bytesource.NewWindow(bytes.NewReader(data), 16), jpegStart, jpegStop)
	require.NoError(t, err)

	_, err = io.ReadAll(s)
	require.ErrorIs(t, err, bytesource.ErrWindowExceeded)
	assert.True(t, s.IsEnded())
	require.ErrorIs(t, s.Err(), bytesource.ErrWindowExceeded)
}

func TestJunkDoesNotFillWindow(t *testing.T) {
	junk := bytes.Repeat([]byte{0x11}, 100)
	segment := concat(jpegStart, []byte("payload"), jpegStop)
	data := concat(junk, segment, junk, segment, junk)
	s, err := New(bytesource.NewWindow(bytes.NewReader(data), 16), jpegStart, jpegStop)
	require.NoError(t, err)

	for range 2 {
		s.ResetWindow()
		seg, err := io.ReadAll(s)
		require.NoError(t, err)
		assert.Equal(t, segment, seg)
	}
	s.ResetWindow()
	seg, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Empty(t, seg)
	assert.True(t, s.IsEnded())
	require.NoError(t, s.Err())
}

func TestReadStopsAtSegmentBoundary(t *testing.T) {
	first := concat(jpegStart, []byte("abc"), jpegStop)
	second := concat(jpegStart, []byte("defgh"), jpegStop)
	s := newScanner(t, concat([]byte("xx"), first, []byte("\r\n--boundary\r\n"), second), jpegStart, jpegStop)

	got, err := io.ReadAll(iotest.OneByteReader(s))
	require.NoError(t, err)
	assert.Equal(t, first, got)

	buf := make([]byte, 1024)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, second, buf[:n])

	n, err = s.Read(buf)
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)

	n, err = s.Read(buf)
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
	assert.True(t, s.IsEnded())
}

func TestFinishSegment(t *testing.T) {
	first := concat(jpegStart, []byte("0123456789"), jpegStop)
	second := concat(jpegStart, []byte("next"), jpegStop)
	s := newScanner(t, concat(first, second), jpegStart, jpegStop)

	require.NoError(t, s.FinishSegment())
	assert.False(t, s.InSegment())

	buf := make([]byte, 4)
	_, err := io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.True(t, s.InSegment())

	require.NoError(t, s.FinishSegment())
	assert.False(t, s.InSegment())

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestEqualMarkers(t *testing.T) {
	marker := []byte("--b")
	data := concat([]byte("zz--bAAA--bBBB--b"))
	s := newScanner(t, data, marker, marker)

	seg, ok := nextSegment(t, s)
	require.True(t, ok)
	assert.Equal(t, []byte("--bAAA--b"), seg)

	seg, ok = nextSegment(t, s)
	require.False(t, ok)
	assert.Equal(t, []byte("--b"), seg)
}

type closeCounter struct {
	bytesource.ByteSource
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestCloseOnEnd(t *testing.T) {
	src := &closeCounter{ByteSource: bytesource.NewWindow(bytes.NewReader([]byte("x")), 0)}
	s, err := New(src, jpegStart, jpegStop)
	require.NoError(t, err)

	_, err = s.ReadByte()
	require.ErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, 1, src.closed)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, src.closed)
}
