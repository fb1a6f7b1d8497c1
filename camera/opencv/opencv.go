// Package opencv implements a camera driver with OpenCV video capture.
//
// OpenCV is only linked in when building with the gocv tag:
//
//	go build -tags gocv ./cmd/motioncam
//
// Without the tag, Open returns ErrUnavailable.
package opencv

import (
	"errors"
)

// ErrUnavailable is returned by Open when built without OpenCV support.
var ErrUnavailable = errors.New("opencv support not compiled in, rebuild with -tags gocv")

// Driver opens cameras by index with OpenCV.
type Driver struct {
	Verbose bool
}
