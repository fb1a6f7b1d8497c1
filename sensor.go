// Package motion detects motion in camera images by comparing consecutive
// smoothed grayscale frames.
package motion

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/edgeimpulse/motion-sdk-go/camera"
)

var errNoFrame = errors.New("device returned no frame")

// SensorOpts are options for a Sensor.
type SensorOpts struct {
	CameraIndex int     // Device to open, 0 for the default camera.
	Width       int     // Requested capture width. The device may not honor it.
	Height      int     // Requested capture height. The device may not honor it.
	Kernel      *Kernel // Smoothing kernel. If nil, BoxBlur is used.
	Verbose     bool    // Print verbose logging.
}

// sensorOptsDefault has default option values for a Sensor.
var sensorOptsDefault = SensorOpts{
	CameraIndex: 0,
	Width:       640,
	Height:      480,
}

// Result is the outcome of a single Motion call.
type Result struct {
	// If set, no frame could be captured and other fields are zero. Callers
	// polling in a loop can treat this as "no motion" and try again.
	Err error

	// Frame as captured from the device.
	Frame image.Image

	// Mask marks changed pixels with 255, others are 0.
	Mask *image.Gray

	// Percentage of changed pixels, in [0, 100].
	Percent float64
}

// Sensor captures frames from a camera and reports how much changed since the
// previous frame.
//
// A Sensor starts out stopped. Motion opens the device when needed. Callers
// must call Stop (or Close) to release the device, or use Run.
type Sensor struct {
	driver camera.Driver
	opts   SensorOpts
	kernel Kernel

	mutex  sync.Mutex   // Serializes access to device and last.
	device camera.Device // Nil when stopped.
	last   *image.Gray   // Processed previous frame, nil after start or stop.
}

// NewSensor returns a stopped sensor that opens cameras through driver.
// Zero Width or Height in opts are replaced by the defaults, 640x480.
func NewSensor(driver camera.Driver, opts *SensorOpts) *Sensor {
	xopts := sensorOptsDefault
	if opts != nil {
		xopts.CameraIndex = opts.CameraIndex
		xopts.Verbose = opts.Verbose
		if opts.Width > 0 {
			xopts.Width = opts.Width
		}
		if opts.Height > 0 {
			xopts.Height = opts.Height
		}
	}

	s := &Sensor{
		driver: driver,
		opts:   xopts,
		kernel: BoxBlur(),
	}
	if opts != nil && opts.Kernel != nil {
		s.kernel = *opts.Kernel
	}
	return s
}

// Start opens the camera and requests the configured frame size. A device
// that was already open is closed first. The previous frame is forgotten, so
// the next Motion reports no motion.
func (s *Sensor) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.start()
}

func (s *Sensor) start() error {
	s.last = nil
	if s.device != nil {
		if err := s.device.Close(); err != nil && s.opts.Verbose {
			log.Printf("closing camera %d before reopening: %v", s.opts.CameraIndex, err)
		}
		s.device = nil
	}

	dev, err := s.driver.Open(s.opts.CameraIndex)
	if err != nil {
		return fmt.Errorf("opening camera %d: %w", s.opts.CameraIndex, err)
	}
	if err := dev.Configure(s.opts.Width, s.opts.Height); err != nil && s.opts.Verbose {
		log.Printf("requesting %dx%d from camera %d: %v", s.opts.Width, s.opts.Height, s.opts.CameraIndex, err)
	}
	if s.opts.Verbose {
		log.Printf("camera %d opened", s.opts.CameraIndex)
	}
	s.device = dev
	return nil
}

// Stop releases the camera and forgets the previous frame, so the next Motion
// behaves as the very first. Stop on a stopped sensor does nothing.
func (s *Sensor) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.last = nil
	if s.device == nil {
		return nil
	}
	err := s.device.Close()
	s.device = nil
	if err != nil {
		return fmt.Errorf("closing camera %d: %v", s.opts.CameraIndex, err)
	}
	return nil
}

// Close is Stop.
func (s *Sensor) Close() error {
	return s.Stop()
}

// Motion captures a frame, starting the camera if needed, and compares it
// with the frame from the previous call. The first frame after a start always
// has zero motion.
//
// Failures to open the camera or read a frame are not distinguished from each
// other: the Result has only Err set, and the previous frame is kept.
func (s *Sensor) Motion() Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.device == nil {
		if err := s.start(); err != nil {
			return Result{Err: err}
		}
	}

	frame, err := s.device.Read()
	if err == nil && frame == nil {
		err = errNoFrame
	}
	if err != nil {
		if s.opts.Verbose {
			log.Printf("reading from camera %d: %v", s.opts.CameraIndex, err)
		}
		return Result{Err: fmt.Errorf("reading frame: %w", err)}
	}

	processed := ApplyKernel(frame, &s.kernel)
	mask, percent := Compare(processed, s.last)
	if s.last != nil && s.last.Bounds().Size() != processed.Bounds().Size() && s.opts.Verbose {
		log.Printf("frame size changed from %v to %v, not comparing", s.last.Bounds().Size(), processed.Bounds().Size())
	}
	s.last = processed

	return Result{Frame: frame, Mask: mask, Percent: percent}
}

// Run creates a sensor, calls fn with it, and stops the sensor when fn
// returns or panics. The error from fn takes precedence over the error from
// stopping.
func Run(driver camera.Driver, opts *SensorOpts, fn func(s *Sensor) error) (rerr error) {
	s := NewSensor(driver, opts)
	defer func() {
		if err := s.Stop(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	return fn(s)
}
