package session

import (
	"math"

	"go.klb.dev/pinpaste/internal/imagedata"
)

// Fit scales img down uniformly so that neither side exceeds frac of area.
// Images already within bounds keep their natural size.
func Fit(img, area imagedata.Size, frac float64) imagedata.Size {
	if area.Width <= 0 || area.Height <= 0 {
		return img
	}
	maxW := float64(area.Width) * frac
	maxH := float64(area.Height) * frac
	w, h := float64(img.Width), float64(img.Height)
	if w > maxW || h > maxH {
		ratio := math.Min(maxW/w, maxH/h)
		w = math.Floor(w * ratio)
		h = math.Floor(h * ratio)
	}
	return imagedata.Size{Width: max(int(w), 1), Height: max(int(h), 1)}
}

// Center returns the top-left corner that centres size within area.
func Center(size, area imagedata.Size) (x, y int) {
	if area.Width <= 0 || area.Height <= 0 {
		return 0, 0
	}
	return (area.Width - size.Width) / 2, (area.Height - size.Height) / 2
}
