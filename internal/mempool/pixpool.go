// Package mempool pools frame buffers so that rendering an animation does not
// allocate a fresh canvas per frame.
package mempool

import (
	"image"
	"sync"
)

// pixPools maps a size class to a *sync.Pool of []uint8.
var pixPools sync.Map

const classStep = 4096

// sizeClass rounds n up to a multiple of classStep.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

func poolFor(cls int) *sync.Pool {
	p, _ := pixPools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]uint8, cls)
		return &buf
	}})
	return p.(*sync.Pool)
}

// GetPix returns a byte slice of length n. Contents are not zeroed.
func GetPix(n int) []uint8 {
	cls := sizeClass(n)
	bufp, _ := poolFor(cls).Get().(*[]uint8)
	if bufp == nil || cap(*bufp) < cls {
		buf := make([]uint8, cls)
		bufp = &buf
	}
	return (*bufp)[:n]
}

// PutPix returns buf to its pool. Nil slices are ignored.
func PutPix(buf []uint8) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		return // not from GetPix
	}
	buf = buf[:cap(buf)]
	poolFor(cls).Put(&buf)
}

// GetRGBA returns a width x height RGBA image backed by a pooled buffer.
// Every pixel must be written before the image is read.
func GetRGBA(width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    GetPix(4 * width * height),
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// PutRGBA releases an image obtained from GetRGBA.
func PutRGBA(img *image.RGBA) {
	if img == nil {
		return
	}
	PutPix(img.Pix)
}
