package framedecoder

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

type PixelFormat string

const (
	PixelFormatUndefined = PixelFormat("")
	PixelFormatRGBA      = PixelFormat("rgba")
	PixelFormatGray      = PixelFormat("gray")

	// PixelFormatNative keeps the image the codec produced. Such frames
	// are never reused, since codecs always allocate their own images.
	PixelFormatNative = PixelFormat("native")
)

type Codec string

const (
	CodecAuto = Codec("auto")
	CodecJPEG = Codec("jpeg")
	CodecPNG  = Codec("png")
	CodecWebP = Codec("webp")
)

const (
	DefaultTempBufferSize = 1 << 16

	// sniffLen is how much http.DetectContentType looks at.
	sniffLen = 512
)

var ErrInvalidOptions = errors.New("invalid decoder options")

type Options struct {
	ReuseBuffer   bool
	PreferQuality bool
	PixelFormat   PixelFormat
	Codec         Codec

	// TempBufferSize is the size of the read buffer placed between the
	// segment reader and the codec.
	TempBufferSize int

	// ScaleOnDecode makes the decoder fit frames into ScaleWidth x ScaleHeight
	// (preserving the aspect ratio) instead of leaving scaling to the display.
	ScaleOnDecode bool
	ScaleWidth    int
	ScaleHeight   int
}

func DefaultOptions() Options {
	return Options{
		ReuseBuffer:    true,
		PreferQuality:  false,
		PixelFormat:    PixelFormatRGBA,
		Codec:          CodecJPEG,
		TempBufferSize: DefaultTempBufferSize,
	}
}

func (opts Options) Validate() error {
	var result *multierror.Error
	switch opts.PixelFormat {
	case PixelFormatRGBA, PixelFormatGray, PixelFormatNative:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown pixel format '%s'", opts.PixelFormat))
	}
	switch opts.Codec {
	case CodecAuto, CodecJPEG, CodecPNG, CodecWebP:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown codec '%s'", opts.Codec))
	}
	if opts.TempBufferSize < sniffLen {
		result = multierror.Append(result, fmt.Errorf("the temporary buffer size should be at least %d, but it is %d", sniffLen, opts.TempBufferSize))
	}
	if opts.ScaleOnDecode && (opts.ScaleWidth <= 0 || opts.ScaleHeight <= 0) {
		result = multierror.Append(result, fmt.Errorf("scale-on-decode requires a positive size, but it is %dx%d", opts.ScaleWidth, opts.ScaleHeight))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
