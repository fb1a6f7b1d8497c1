package motion

import (
	"image"

	"github.com/disintegration/imaging"
)

// Threshold is the absolute difference between two processed pixels above
// which the pixel is marked as changed. A difference of exactly Threshold is
// not a change.
const Threshold = 30

// Kernel is a 3x3 convolution kernel in row-major order.
type Kernel [9]float64

// BoxBlur returns the default smoothing kernel, nine equal weights summing to 1.
func BoxBlur() Kernel {
	var k Kernel
	for i := range k {
		k[i] = 1.0 / 9
	}
	return k
}

// ApplyKernel converts img to grayscale and convolves it with k. If k is nil,
// BoxBlur is used. Pixels outside the image are taken from the nearest edge.
//
// The returned image always has its origin at (0, 0).
func ApplyKernel(img image.Image, k *Kernel) *image.Gray {
	kernel := BoxBlur()
	if k != nil {
		kernel = *k
	}

	gray := imaging.Grayscale(img)
	smooth := imaging.Convolve3x3(gray, kernel, nil)

	// All channels are equal after Grayscale, take red.
	size := smooth.Bounds().Size()
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		src := smooth.Pix[y*smooth.Stride : y*smooth.Stride+size.X*4]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+size.X]
		for x := range row {
			row[x] = src[x*4]
		}
	}
	return dst
}

// Compare returns the motion mask between the processed frames cur and prev,
// and the percentage of pixels marked changed.
//
// Mask pixels are 255 where the absolute difference exceeds Threshold and 0
// elsewhere. If prev is nil or differs in size from cur, there is nothing to
// compare against: the mask is all zero and the percentage is 0.
func Compare(cur, prev *image.Gray) (*image.Gray, float64) {
	cb := cur.Bounds()
	mask := image.NewGray(image.Rect(0, 0, cb.Dx(), cb.Dy()))
	if prev == nil || prev.Bounds().Size() != cb.Size() {
		return mask, 0
	}
	total := cb.Dx() * cb.Dy()
	if total == 0 {
		return mask, 0
	}
	changed := diffMask(cur, prev, mask)
	return mask, float64(changed) * 100 / float64(total)
}
