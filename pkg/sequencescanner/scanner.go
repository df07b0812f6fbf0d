package sequencescanner

import (
	"errors"
	"fmt"
	"io"

	"github.com/xaionaro-go/mjpegview/pkg/bytesource"
)

var (
	// ErrEndOfSegment is returned by ReadByte right after the last byte of
	// the stop marker was emitted. The next call starts the next segment.
	ErrEndOfSegment = errors.New("end of segment")

	// ErrEndOfStream is returned once the source is exhausted (or failed).
	// It is sticky.
	ErrEndOfStream = errors.New("end of stream")

	ErrInvalidMarker = errors.New("invalid marker")
	ErrNilSource     = errors.New("the byte source is nil")
)

type scanState struct {
	foundStart        bool
	startBytesEmitted int
	stopMatchCount    int
}

// Scanner extracts segments delimited by StartMarker and StopMarker from
// a byte source. A segment includes both markers.
//
// Scanner is not safe for concurrent use.
type Scanner struct {
	Source      bytesource.ByteSource
	StartMarker []byte
	StopMarker  []byte

	state scanState
	ended bool
	cause error
}

var _ io.Reader = (*Scanner)(nil)
var _ io.ByteReader = (*Scanner)(nil)

func New(
	src bytesource.ByteSource,
	startMarker []byte,
	stopMarker []byte,
) (*Scanner, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if len(startMarker) == 0 {
		return nil, fmt.Errorf("%w: the start marker is empty", ErrInvalidMarker)
	}
	if len(stopMarker) == 0 {
		return nil, fmt.Errorf("%w: the stop marker is empty", ErrInvalidMarker)
	}
	return &Scanner{
		Source:      src,
		StartMarker: cloneBytes(startMarker),
		StopMarker:  cloneBytes(stopMarker),
	}, nil
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

// advanceMatch moves a forward-scan match cursor by one byte: a mismatch
// resets the cursor, but the byte may still start a fresh match.
func advanceMatch(marker []byte, matched int, c byte) int {
	if marker[matched] == c {
		return matched + 1
	}
	if marker[0] == c {
		return 1
	}
	return 0
}

// ReadByte returns the next byte of the current segment, ErrEndOfSegment
// when the segment is over, or ErrEndOfStream when nothing more could be
// read. A window overflow of the source is returned as is (it also ends the stream).
func (s *Scanner) ReadByte() (byte, error) {
	if s.ended {
		return 0, ErrEndOfStream
	}

	if !s.state.foundStart {
		if err := s.lookForStart(); err != nil {
			return 0, err
		}
		s.state.foundStart = true
	}

	if s.state.startBytesEmitted < len(s.StartMarker) {
		c := s.StartMarker[s.state.startBytesEmitted]
		s.state.startBytesEmitted++
		return c, nil
	}

	if s.state.stopMatchCount == len(s.StopMarker) {
		s.Restart()
		return 0, ErrEndOfSegment
	}

	c, err := s.Source.ReadByte()
	if err != nil {
		return 0, s.endStream(err)
	}
	s.state.stopMatchCount = advanceMatch(s.StopMarker, s.state.stopMatchCount, c)
	return c, nil
}

// lookForStart skips the bytes preceding the start marker. They are not
// part of any segment, so they are dropped from the window as they go.
func (s *Scanner) lookForStart() error {
	matched := 0
	for matched < len(s.StartMarker) {
		s.Source.ResetWindow()
		c, err := s.Source.ReadByte()
		if err != nil {
			return s.endStream(err)
		}
		matched = advanceMatch(s.StartMarker, matched, c)
	}
	s.Source.ResetWindow()
	return nil
}

func (s *Scanner) endStream(cause error) error {
	s.Restart()
	s.ended = true
	if !errors.Is(cause, io.EOF) {
		s.cause = cause
	}
	if closer, ok := s.Source.(io.Closer); ok {
		if err := closer.Close(); err != nil && s.cause == nil {
			s.cause = fmt.Errorf("unable to close the source: %w", err)
		}
	}
	if errors.Is(cause, bytesource.ErrWindowExceeded) {
		return cause
	}
	return ErrEndOfStream
}

// Read implements io.Reader over a single segment: it returns io.EOF at the
// end of the segment (and at the end of the stream).
func (s *Scanner) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if n > 0 && s.segmentComplete() {
			return n, nil
		}
		c, err := s.ReadByte()
		if err != nil {
			if n > 0 && !s.isFatal(err) {
				return n, nil
			}
			switch {
			case errors.Is(err, ErrEndOfSegment), errors.Is(err, ErrEndOfStream):
				return n, io.EOF
			default:
				return n, err
			}
		}
		p[n] = c
		n++
	}
	return n, nil
}

func (s *Scanner) segmentComplete() bool {
	return s.state.foundStart &&
		s.state.startBytesEmitted == len(s.StartMarker) &&
		s.state.stopMatchCount == len(s.StopMarker)
}

func (s *Scanner) isFatal(err error) bool {
	return errors.Is(err, bytesource.ErrWindowExceeded)
}

// InSegment reports if a start marker was found and the segment is not over yet.
func (s *Scanner) InSegment() bool {
	return s.state.foundStart
}

// FinishSegment skips the rest of the current segment. It does nothing
// between segments.
func (s *Scanner) FinishSegment() error {
	for s.state.foundStart {
		_, err := s.ReadByte()
		switch {
		case err == nil:
		case errors.Is(err, ErrEndOfSegment):
			return nil
		default:
			return err
		}
	}
	return nil
}

// Restart forgets the progress within the current segment. It does not
// revive an ended stream.
func (s *Scanner) Restart() {
	s.state = scanState{}
}

// IsEnded reports if ErrEndOfStream was declared.
func (s *Scanner) IsEnded() bool {
	return s.ended
}

// Err returns the reason the stream ended, if it was not a clean end of input.
func (s *Scanner) Err() error {
	return s.cause
}

// ResetWindow starts a fresh lookahead window of the source.
func (s *Scanner) ResetWindow() {
	s.Source.ResetWindow()
}

// Close ends the stream and closes the source.
func (s *Scanner) Close() error {
	if s.ended {
		return nil
	}
	s.Restart()
	s.ended = true
	closer, ok := s.Source.(io.Closer)
	if !ok {
		return nil
	}
	return closer.Close()
}
