package imagedata

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeDecode(t *testing.T) {
	raw := pngBytes(t, 3, 2)
	uri := EncodePNG(raw)
	assert.True(t, len(uri) > len("data:image/png;base64,"))

	mime, data, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, MIMEPNG, mime)
	assert.Equal(t, raw, data)
}

func TestDecodeBareBase64(t *testing.T) {
	raw := pngBytes(t, 1, 1)
	uri := EncodePNG(raw)
	bare := uri[len("data:image/png;base64,"):]

	mime, data, err := Decode(bare)
	require.NoError(t, err)
	assert.Empty(t, mime)
	assert.Equal(t, raw, data)
}

func TestDimensions(t *testing.T) {
	size, err := Dimensions(EncodePNG(pngBytes(t, 640, 480)))
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 640, Height: 480}, size)
}

func TestDimensionsFailures(t *testing.T) {
	cases := map[string]string{
		"no payload":  "data:image/png;base64",
		"not base64":  "data:image/png,rawtext",
		"bad base64":  "data:image/png;base64,!!!",
		"not image":   Encode(MIMEPNG, []byte("definitely not a png")),
		"empty bytes": Encode(MIMEPNG, nil),
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Dimensions(uri)
			var de *DecodeError
			assert.True(t, errors.As(err, &de), "got %v", err)
		})
	}
}

func TestEmptyBytesIsEmptyImage(t *testing.T) {
	_, err := DimensionsOf(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", Extension(MIMEPNG))
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Equal(t, ".png", Extension(""))
}
