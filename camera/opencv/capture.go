//go:build gocv

package opencv

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/edgeimpulse/motion-sdk-go/camera"

	"gocv.io/x/gocv"
)

var errNotReady = errors.New("device not ready")

// Check that Driver implements interface camera.Driver.
var _ camera.Driver = Driver{}

// Open opens the video capture device with the given index.
func (d Driver) Open(index int) (camera.Device, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("opening video capture device %d: %v", index, err)
	}
	return &device{
		vc:      vc,
		mat:     gocv.NewMat(),
		index:   index,
		verbose: d.Verbose,
	}, nil
}

type device struct {
	vc      *gocv.VideoCapture
	mat     gocv.Mat // Reused for every frame.
	index   int
	verbose bool
	closed  bool
}

func (d *device) Configure(width, height int) error {
	if d.closed {
		return camera.ErrClosed
	}
	d.vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	d.vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	if d.verbose {
		w := d.vc.Get(gocv.VideoCaptureFrameWidth)
		h := d.vc.Get(gocv.VideoCaptureFrameHeight)
		log.Printf("camera %d: requested %dx%d, device reports %.0fx%.0f", d.index, width, height, w, h)
	}
	return nil
}

func (d *device) Read() (image.Image, error) {
	if d.closed {
		return nil, camera.ErrClosed
	}
	if !d.vc.IsOpened() {
		return nil, errNotReady
	}
	if ok := d.vc.Read(&d.mat); !ok || d.mat.Empty() {
		return nil, errNotReady
	}
	img, err := d.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %v", err)
	}
	return img, nil
}

func (d *device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.mat.Close()
	return d.vc.Close()
}
