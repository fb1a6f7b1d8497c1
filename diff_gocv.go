//go:build gocv

package motion

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

// diffMask marks pixels of mask where cur and prev differ by more than
// Threshold and returns how many were marked. cur and prev have equal size.
func diffMask(cur, prev *image.Gray, mask *image.Gray) int {
	size := cur.Bounds().Size()

	a, err := gocv.NewMatFromBytes(size.Y, size.X, gocv.MatTypeCV8U, packGray(cur))
	if err != nil {
		log.Printf("mat from current frame: %v", err)
		return 0
	}
	defer a.Close()
	b, err := gocv.NewMatFromBytes(size.Y, size.X, gocv.MatTypeCV8U, packGray(prev))
	if err != nil {
		log.Printf("mat from previous frame: %v", err)
		return 0
	}
	defer b.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, Threshold, 255, gocv.ThresholdBinary)

	buf := thresh.ToBytes()
	for y := 0; y < size.Y; y++ {
		copy(mask.Pix[y*mask.Stride:y*mask.Stride+size.X], buf[y*size.X:(y+1)*size.X])
	}
	return gocv.CountNonZero(thresh)
}

// packGray returns the pixels of img without row padding.
func packGray(img *image.Gray) []byte {
	b := img.Bounds()
	w := b.Dx()
	buf := make([]byte, w*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(buf[y*w:(y+1)*w], img.Pix[off:off+w])
	}
	return buf
}
