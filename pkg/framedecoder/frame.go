package framedecoder

import (
	"image"
	"time"
)

// Frame is a decoded image.
//
// If Mutable is true the backing buffer belongs to the decoder again once
// the frame after the next one is decoded; a consumer must not hold more
// than one published frame past the next publish.
type Frame struct {
	Image     image.Image
	Format    PixelFormat
	Mutable   bool
	Sequence  uint64
	DecodedAt time.Time
}

func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}
