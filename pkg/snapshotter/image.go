package snapshotter

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

type Format string

const (
	FormatPNG  = Format("png")
	FormatJPEG = Format("jpeg")
	FormatWebP = Format("webp")
)

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unable to choose an image format for '%s'", path)
	}
}

// imgFitTo returns a copy of src scaled down to fit into size. A
// non-positive size keeps the original dimensions.
func imgFitTo(src image.Image, size image.Point) image.Image {
	sizeCur := src.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 || (sizeCur.X <= size.X && sizeCur.Y <= size.Y) {
		return imgClone(src)
	}
	factor := min(
		float64(size.X)/float64(sizeCur.X),
		float64(size.Y)/float64(sizeCur.Y),
	)
	newWidth := max(1, uint(float64(sizeCur.X)*factor))
	newHeight := max(1, uint(float64(sizeCur.Y)*factor))
	if int(newWidth) == sizeCur.X && int(newHeight) == sizeCur.Y {
		return imgClone(src)
	}
	return resize.Resize(newWidth, newHeight, src, resize.Lanczos3)
}

func imgClone(src image.Image) image.Image {
	dst := image.NewRGBA(image.Rectangle{Max: src.Bounds().Size()})
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func encodeImage(w io.Writer, img image.Image, format Format, quality float32) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: int(quality)})
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{
			Lossless: false,
			Quality:  quality,
			Exact:    false,
		})
	default:
		return fmt.Errorf("unknown image format '%s'", format)
	}
}
