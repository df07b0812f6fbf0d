package framedecoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mjpegview/pkg/bytesource"
	"github.com/xaionaro-go/mjpegview/pkg/clock"
	"github.com/xaionaro-go/mjpegview/pkg/metrics"
	"golang.org/x/image/draw"
)

// ErrStreamEnded means no more frames will come out of the segment reader.
// It is not a failure; it may wrap the I/O error that ended the stream.
var ErrStreamEnded = errors.New("stream ended")

// SegmentReader is a reader of delimited segments, see sequencescanner.Scanner.
type SegmentReader interface {
	io.Reader
	ResetWindow()
	FinishSegment() error
	IsEnded() bool
	Err() error
}

type Stats struct {
	Attempts          uint64
	Failures          uint64
	BufferAllocations uint64
}

// Decoder turns segments into frames. It is not safe for concurrent use:
// the reusable buffer is owned by exactly one decoding pipeline.
type Decoder struct {
	Options Options
	Metrics *metrics.Metrics

	reader   *bufio.Reader
	reuse    draw.Image
	lastOut  draw.Image
	sequence uint64
	stats    Stats
}

func New(opts Options, m *metrics.Metrics) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Decoder{
		Options: opts,
		Metrics: m,
		reader:  bufio.NewReaderSize(nil, opts.TempBufferSize),
	}, nil
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// DecodeNext decodes the next decodable segment. Segments that fail to
// decode are skipped (and the reusable buffer is dropped).
//
// It returns ErrStreamEnded when the segment reader is exhausted, an error
// wrapping bytesource.ErrWindowExceeded if a segment does not fit into
// the lookahead window, or the context error if ctx was cancelled
// between attempts.
func (d *Decoder) DecodeNext(
	ctx context.Context,
	seg SegmentReader,
) (_ret *Frame, _err error) {
	logger.Tracef(ctx, "DecodeNext")
	defer func() { logger.Tracef(ctx, "/DecodeNext: %v", _err) }()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seg.ResetWindow()
		frame, err := d.decodeOnce(ctx, seg)
		if err == nil {
			return frame, nil
		}
		if seg.IsEnded() {
			return nil, endedError(seg.Err())
		}

		d.stats.Failures++
		d.Metrics.DecodeFailures.Inc()
		d.reuse = nil
		logger.Debugf(ctx, "unable to decode the segment, skipping it: %v", err)

		if err := seg.FinishSegment(); err != nil && seg.IsEnded() {
			return nil, endedError(seg.Err())
		}
	}
}

func endedError(cause error) error {
	switch {
	case cause == nil:
		return ErrStreamEnded
	case errors.Is(cause, bytesource.ErrWindowExceeded):
		return cause
	default:
		return fmt.Errorf("%w: %w", ErrStreamEnded, cause)
	}
}

func (d *Decoder) decodeOnce(ctx context.Context, seg SegmentReader) (*Frame, error) {
	d.stats.Attempts++
	d.Metrics.DecodeAttempts.Inc()

	d.reader.Reset(seg)
	defer d.reader.Reset(nil)

	img, err := decodeImage(d.Options.Codec, d.reader)
	if err != nil {
		return nil, err
	}

	// codecs may stop right before the end of the segment
	if err := seg.FinishSegment(); err != nil {
		logger.Debugf(ctx, "unable to drain the rest of the segment: %v", err)
	}

	d.sequence++
	frame := &Frame{
		Sequence:  d.sequence,
		DecodedAt: clock.Get().Now(),
	}

	if d.Options.PixelFormat == PixelFormatNative && !d.Options.ScaleOnDecode {
		frame.Image = img
		frame.Format = PixelFormatNative
		return frame, nil
	}

	dst := d.destination(d.targetSize(img.Bounds().Size()))
	d.render(dst, img)
	frame.Image = dst
	frame.Format = formatOf(dst)
	frame.Mutable = true

	if d.Options.ReuseBuffer {
		// double buffering: the consumer may still present the previous frame
		d.reuse, d.lastOut = d.lastOut, dst
	}
	return frame, nil
}

func (d *Decoder) targetSize(src image.Point) image.Point {
	if !d.Options.ScaleOnDecode || src.X <= 0 || src.Y <= 0 {
		return src
	}
	return fitInto(src, image.Point{X: d.Options.ScaleWidth, Y: d.Options.ScaleHeight})
}

func fitInto(src, box image.Point) image.Point {
	factor := min(
		float64(box.X)/float64(src.X),
		float64(box.Y)/float64(src.Y),
	)
	return image.Point{
		X: max(1, int(float64(src.X)*factor)),
		Y: max(1, int(float64(src.Y)*factor)),
	}
}

func formatOf(img image.Image) PixelFormat {
	switch img.(type) {
	case *image.RGBA:
		return PixelFormatRGBA
	case *image.Gray:
		return PixelFormatGray
	default:
		return PixelFormatNative
	}
}

func (d *Decoder) wantFormat() PixelFormat {
	if d.Options.PixelFormat == PixelFormatGray {
		return PixelFormatGray
	}
	return PixelFormatRGBA
}

func (d *Decoder) destination(size image.Point) draw.Image {
	want := d.wantFormat()
	if d.reuse != nil && d.reuse.Bounds().Size() == size && formatOf(d.reuse) == want {
		dst := d.reuse
		d.reuse = nil
		return dst
	}

	d.stats.BufferAllocations++
	d.Metrics.BufferAllocations.Inc()
	rect := image.Rectangle{Max: size}
	if want == PixelFormatGray {
		return image.NewGray(rect)
	}
	return image.NewRGBA(rect)
}

func (d *Decoder) render(dst draw.Image, src image.Image) {
	if dst.Bounds().Size() == src.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	var scaler draw.Scaler = draw.ApproxBiLinear
	if d.Options.PreferQuality {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}
