//go:build !gocv

package opencv

import (
	"github.com/edgeimpulse/motion-sdk-go/camera"
)

// Open always fails, OpenCV support is not compiled in.
func (d Driver) Open(index int) (camera.Device, error) {
	return nil, ErrUnavailable
}
