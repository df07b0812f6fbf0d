package framedecoder

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"github.com/chai2010/webp"
)

func detectCodec(head []byte) (Codec, error) {
	mimeType := http.DetectContentType(head)
	switch mimeType {
	case "image/jpeg":
		return CodecJPEG, nil
	case "image/png":
		return CodecPNG, nil
	case "image/webp":
		return CodecWebP, nil
	default:
		return CodecAuto, fmt.Errorf("unexpected image type %s", mimeType)
	}
}

func decodeImage(codec Codec, r *bufio.Reader) (image.Image, error) {
	if codec == CodecAuto {
		head, _ := r.Peek(sniffLen)
		var err error
		codec, err = detectCodec(head)
		if err != nil {
			return nil, err
		}
	}

	switch codec {
	case CodecJPEG:
		return jpeg.Decode(r)
	case CodecPNG:
		return png.Decode(r)
	case CodecWebP:
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("unknown codec '%s'", codec)
	}
}
