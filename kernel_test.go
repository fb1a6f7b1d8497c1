package motion_test

import (
	"image"
	"image/color"
	"testing"

	motion "github.com/edgeimpulse/motion-sdk-go"

	"github.com/google/go-cmp/cmp"
)

func grayImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestBoxBlur(t *testing.T) {
	k := motion.BoxBlur()
	var sum float64
	for _, v := range k {
		if v != k[0] || v <= 0 {
			t.Fatalf("weights not equal and positive: %v", k)
		}
		sum += v
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Fatalf("weights sum to %v, expected 1", sum)
	}
}

func TestApplyKernelUniform(t *testing.T) {
	// Pure red, luminance 0.299*255 = 76.2.
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	r := motion.ApplyKernel(img, nil)
	if r.Bounds() != image.Rect(0, 0, 6, 4) {
		t.Fatalf("unexpected bounds %v", r.Bounds())
	}
	if diff := cmp.Diff(grayImage(6, 4, 76).Pix, r.Pix); diff != "" {
		t.Fatalf("unexpected pixels (-want +got):\n%s", diff)
	}
}

func TestApplyKernelBlur(t *testing.T) {
	img := grayImage(5, 5, 0)
	img.SetGray(2, 2, color.Gray{255})

	r := motion.ApplyKernel(img, nil)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			var exp uint8
			if x >= 1 && x <= 3 && y >= 1 && y <= 3 {
				exp = 28 // 255/9
			}
			if v := r.GrayAt(x, y).Y; v != exp {
				t.Fatalf("pixel %d,%d is %d, expected %d", x, y, v, exp)
			}
		}
	}
}

func TestApplyKernelOverride(t *testing.T) {
	identity := motion.Kernel{0, 0, 0, 0, 1, 0, 0, 0, 0}
	img := grayImage(3, 3, 10)
	img.SetGray(1, 1, color.Gray{200})

	r := motion.ApplyKernel(img, &identity)
	if diff := cmp.Diff(img.Pix, r.Pix); diff != "" {
		t.Fatalf("identity kernel changed pixels (-want +got):\n%s", diff)
	}
}

func TestCompareNoPrevious(t *testing.T) {
	mask, percent := motion.Compare(grayImage(4, 4, 100), nil)
	if percent != 0 {
		t.Fatalf("got percent %v, expected 0", percent)
	}
	if diff := cmp.Diff(grayImage(4, 4, 0).Pix, mask.Pix); diff != "" {
		t.Fatalf("mask not empty (-want +got):\n%s", diff)
	}
}

func TestCompareIdentical(t *testing.T) {
	mask, percent := motion.Compare(grayImage(4, 4, 100), grayImage(4, 4, 100))
	if percent != 0 {
		t.Fatalf("got percent %v, expected 0", percent)
	}
	if diff := cmp.Diff(grayImage(4, 4, 0).Pix, mask.Pix); diff != "" {
		t.Fatalf("mask not empty (-want +got):\n%s", diff)
	}
}

func TestCompareThreshold(t *testing.T) {
	prev := grayImage(2, 1, 100)
	cur := grayImage(2, 1, 100)
	cur.SetGray(0, 0, color.Gray{100 + motion.Threshold})
	cur.SetGray(1, 0, color.Gray{100 - motion.Threshold - 1})

	mask, percent := motion.Compare(cur, prev)
	if mask.GrayAt(0, 0).Y != 0 {
		t.Fatalf("difference of exactly %d marked as changed", motion.Threshold)
	}
	if mask.GrayAt(1, 0).Y != 255 {
		t.Fatalf("difference of %d not marked as changed", motion.Threshold+1)
	}
	if percent != 50 {
		t.Fatalf("got percent %v, expected 50", percent)
	}
}

func TestCompareTwoPixels(t *testing.T) {
	prev := grayImage(4, 4, 20)
	cur := grayImage(4, 4, 20)
	cur.SetGray(1, 1, color.Gray{70})
	cur.SetGray(3, 2, color.Gray{70})

	mask, percent := motion.Compare(cur, prev)
	if percent != 12.5 {
		t.Fatalf("got percent %v, expected 12.5", percent)
	}
	exp := grayImage(4, 4, 0)
	exp.SetGray(1, 1, color.Gray{255})
	exp.SetGray(3, 2, color.Gray{255})
	if diff := cmp.Diff(exp.Pix, mask.Pix); diff != "" {
		t.Fatalf("unexpected mask (-want +got):\n%s", diff)
	}
}

func TestCompareAll(t *testing.T) {
	_, percent := motion.Compare(grayImage(3, 3, 255), grayImage(3, 3, 0))
	if percent != 100 {
		t.Fatalf("got percent %v, expected 100", percent)
	}
}

func TestCompareSizeMismatch(t *testing.T) {
	mask, percent := motion.Compare(grayImage(4, 4, 255), grayImage(2, 2, 0))
	if percent != 0 {
		t.Fatalf("got percent %v for frames of different size, expected 0", percent)
	}
	if mask.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("unexpected mask bounds %v", mask.Bounds())
	}
}

func TestCompareOffsetBounds(t *testing.T) {
	prev := grayImage(2, 2, 0)
	cur := grayImage(4, 4, 0).SubImage(image.Rect(2, 2, 4, 4)).(*image.Gray)
	cur.SetGray(3, 3, color.Gray{200})

	mask, percent := motion.Compare(cur, prev)
	if percent != 25 {
		t.Fatalf("got percent %v, expected 25", percent)
	}
	if mask.GrayAt(1, 1).Y != 255 {
		t.Fatalf("changed pixel not marked in mask: %v", mask.Pix)
	}
}
