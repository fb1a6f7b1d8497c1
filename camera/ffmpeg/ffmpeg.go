// Package ffmpeg implements an image recorder with ffmpeg reading from a
// video4linux device.
package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/edgeimpulse/motion-sdk-go/camera"

	"github.com/fsnotify/fsnotify"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y ffmpeg v4l-utils")

// RecorderOpts has options for a new ffmpeg recorder.
type RecorderOpts struct {
	Verbose  bool
	Interval time.Duration // How often to record an image.
	DeviceID string        // As retrieved from ListDevices. If empty, NewRecorder will use the first device returned by ListDevices.
	Width    int           // Requested image width. If 0, 640 is used.
	Height   int           // Requested image height. If 0, 480 is used.
}

// ListDevices returns a list of devices that can be used for recording.
// ListDevices returns an error if no devices are available.
func ListDevices() ([]camera.Info, error) {
	cmd := exec.Command("v4l2-ctl", "--list-devices")
	buf, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("listing devices using v4l2-ctl: %v", err)
	}
	return parseDevices(string(buf))
}

func parseDevices(s string) ([]camera.Info, error) {
	var curDevice string
	devices := []camera.Info{}
	for _, line := range strings.Split(s, "\n") {
		if !strings.HasPrefix(line, "\t") {
			curDevice = strings.TrimSuffix(strings.TrimSpace(line), ":")
			continue
		}
		if curDevice == "" || strings.HasPrefix(curDevice, "bcm2835-") {
			continue
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/dev/video") {
			continue
		}
		devices = append(devices, camera.Info{
			Name: fmt.Sprintf("%s (%s)", curDevice, line),
			ID:   line,
		})
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices available")
	}
	return devices, nil
}

// NewRecorder starts ffmpeg, writing images to a temporary directory. These
// files are read and sent over the channel returned by Events.
//
// Callers must call Close to clean up.
func NewRecorder(opts RecorderOpts) (*camera.ProcessRecorder, error) {
	if opts.DeviceID == "" {
		devs, err := ListDevices()
		if err != nil {
			return nil, fmt.Errorf("listing devices: %v", err)
		}
		opts.DeviceID = devs[0].ID
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 480
	}
	framerate := 10
	if opts.Interval > 0 && opts.Interval < time.Second {
		framerate = int(time.Second / opts.Interval)
	}

	args := []string{
		"-f", "v4l2",
		"-framerate", fmt.Sprintf("%d", framerate),
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-c:v", "mjpeg",
		"-i", opts.DeviceID,
		"-f", "image2",
		"-c:v", "copy",
		"-bsf:v", "mjpeg2jpeg",
		"-qscale:v", "2",
		"test%d.jpg",
	}

	return camera.StartProcess(camera.ProcessOpts{
		Name:        "ffmpeg",
		Args:        args,
		Verbose:     opts.Verbose,
		Interval:    opts.Interval,
		InstallHint: errInstallHint,
		Ready: func(ev fsnotify.Event) bool {
			return ev.Has(fsnotify.Write)
		},
	})
}

// Driver opens /dev/video<index> through ffmpeg.
type Driver struct {
	Verbose  bool
	Interval time.Duration
}

// Check that Driver implements interface camera.Driver.
var _ camera.Driver = Driver{}

// Open returns a device that starts ffmpeg on its first read.
func (d Driver) Open(index int) (camera.Device, error) {
	if index < 0 {
		return nil, fmt.Errorf("invalid camera index %d", index)
	}
	return camera.NewRecorderDevice(index, func(index, width, height int) (camera.Recorder, error) {
		r, err := NewRecorder(RecorderOpts{
			Verbose:  d.Verbose,
			Interval: d.Interval,
			DeviceID: fmt.Sprintf("/dev/video%d", index),
			Width:    width,
			Height:   height,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	}), nil
}
