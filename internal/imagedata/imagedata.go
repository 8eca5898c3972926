// Package imagedata converts between raw image bytes and the data-URI form
// stored in history records, and reads image dimensions without decoding
// pixel data.
package imagedata

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MIMEPNG is the MIME type of clipboard images.
const MIMEPNG = "image/png"

// ErrEmptyImage is returned when a payload decodes to an image with no pixels.
var ErrEmptyImage = errors.New("empty image")

// DecodeError reports a payload that could not be interpreted as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "image decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Size is a pixel width and height.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EncodePNG wraps PNG bytes in a base64 data URI.
func EncodePNG(data []byte) string {
	return Encode(MIMEPNG, data)
}

// Encode wraps data in a base64 data URI of the given MIME type.
func Encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode returns the MIME type and raw bytes of a base64 data URI. A payload
// without the "data:" prefix is treated as bare base64 of unknown type.
func Decode(uri string) (mime string, data []byte, err error) {
	payload := uri
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, &DecodeError{Err: errors.New("data URI without payload")}
		}
		params := strings.Split(header, ";")
		if params[len(params)-1] != "base64" {
			return "", nil, &DecodeError{Err: errors.New("data URI is not base64-encoded")}
		}
		mime = params[0]
		payload = body
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, &DecodeError{Err: err}
	}
	return mime, data, nil
}

// Dimensions returns the natural size of the image in a data URI.
func Dimensions(uri string) (Size, error) {
	_, data, err := Decode(uri)
	if err != nil {
		return Size{}, err
	}
	return DimensionsOf(data)
}

// DimensionsOf returns the natural size of encoded image bytes.
func DimensionsOf(data []byte) (Size, error) {
	if len(data) == 0 {
		return Size{}, &DecodeError{Err: ErrEmptyImage}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Size{}, &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Size{}, &DecodeError{Err: fmt.Errorf("%s: %w", format, ErrEmptyImage)}
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// Extension returns a file extension for mime, defaulting to ".png".
func Extension(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".png"
	}
}
