// Package camera describes capture devices, and adapts streaming image
// recorders to devices that are read one frame at a time.
package camera

import (
	"errors"
	"image"
)

// ErrClosed is returned when reading from or configuring a closed device.
var ErrClosed = errors.New("device closed")

// Driver opens capture devices by index.
type Driver interface {
	Open(index int) (Device, error)
}

// Device is an open capture device, exclusively owned by whoever opened it.
type Device interface {
	// Configure requests a frame size. The device may deliver a different
	// size if it cannot honor the request.
	Configure(width, height int) error

	// Read blocks until a frame is available or the device fails.
	Read() (image.Image, error)

	// Close releases the device. Close on a closed device returns nil.
	Close() error
}

// Cap describes a capability of a device.
type Cap struct {
	Type      string // "video/x-raw", "image/jpeg" or "nvarguscamerasrc"
	Width     int
	Height    int
	Framerate int
}

// Info describes a camera device capable of recording images, as returned by
// the ListDevices functions of the backends.
type Info struct {
	Name string
	ID   string
	Caps []Cap
}
