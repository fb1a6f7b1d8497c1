//go:build !gocv

package motion

import (
	"image"
)

// diffMask marks pixels of mask where cur and prev differ by more than
// Threshold and returns how many were marked. cur and prev have equal size.
func diffMask(cur, prev *image.Gray, mask *image.Gray) int {
	cb := cur.Bounds()
	pb := prev.Bounds()
	changed := 0
	for y := 0; y < cb.Dy(); y++ {
		for x := 0; x < cb.Dx(); x++ {
			d := int(cur.GrayAt(cb.Min.X+x, cb.Min.Y+y).Y) - int(prev.GrayAt(pb.Min.X+x, pb.Min.Y+y).Y)
			if d < 0 {
				d = -d
			}
			if d > Threshold {
				mask.Pix[y*mask.Stride+x] = 255
				changed++
			}
		}
	}
	return changed
}
