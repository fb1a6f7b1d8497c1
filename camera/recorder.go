package camera

import (
	"fmt"
	"image"
)

// Recorder is a source of images, for example a webcam.
type Recorder interface {
	// Events returns a channel from which Events can be read, each containing an image.
	Events() chan Event

	// Close shuts down the image recorder. No further Events will be sent.
	Close() error
}

// Event is a single image (or error) coming from a Recorder.
type Event struct {
	// If set, an error occurred.
	Err error

	// Image read from recorder. If Err is set, Image is not valid.
	Image image.Image
}

// RecorderFunc starts a recorder for the device with the given index,
// recording images of approximately width by height pixels.
type RecorderFunc func(index, width, height int) (Recorder, error)

// RecorderDevice is a Device reading from a Recorder. The recorder is started
// on the first Read, and restarted on the next Read after a reconfigure or an
// error from the recorder.
type RecorderDevice struct {
	index       int
	width       int
	height      int
	newRecorder RecorderFunc
	recorder    Recorder
	closed      bool
}

// Check that RecorderDevice implements interface Device.
var _ Device = (*RecorderDevice)(nil)

// NewRecorderDevice returns a device for index that starts recorders with fn.
// No recorder is started until the first Read.
func NewRecorderDevice(index int, fn RecorderFunc) *RecorderDevice {
	return &RecorderDevice{index: index, newRecorder: fn}
}

// Configure sets the size requested from the next recorder. A running
// recorder with a different size is stopped.
func (d *RecorderDevice) Configure(width, height int) error {
	if d.closed {
		return ErrClosed
	}
	if width == d.width && height == d.height {
		return nil
	}
	d.width = width
	d.height = height
	if err := d.stopRecorder(); err != nil {
		return fmt.Errorf("stopping recorder for new size: %v", err)
	}
	return nil
}

// Read returns the next image from the recorder, starting it if needed.
func (d *RecorderDevice) Read() (image.Image, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.recorder == nil {
		r, err := d.newRecorder(d.index, d.width, d.height)
		if err != nil {
			return nil, fmt.Errorf("starting recorder: %v", err)
		}
		d.recorder = r
	}

	ev, ok := <-d.recorder.Events()
	if !ok {
		d.stopRecorder()
		return nil, fmt.Errorf("recorder stopped sending images")
	}
	if ev.Err != nil {
		d.stopRecorder()
		return nil, ev.Err
	}
	return ev.Image, nil
}

// Close stops the recorder, if running.
func (d *RecorderDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.stopRecorder()
}

func (d *RecorderDevice) stopRecorder() error {
	if d.recorder == nil {
		return nil
	}
	err := d.recorder.Close()
	d.recorder = nil
	return err
}
