// Package gstreamer implements an image recorder with the gstreamer tools.
package gstreamer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/edgeimpulse/motion-sdk-go/camera"

	"github.com/fsnotify/fsnotify"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y gstreamer1.0-tools gstreamer1.0-plugins-good gstreamer1.0-plugins-base gstreamer1.0-plugins-base-apps")

// RecorderOpts has options for a new gstreamer recorder.
type RecorderOpts struct {
	Verbose  bool
	Interval time.Duration // How often to record an image.
	DeviceID string        // As retrieved from ListDevices. If empty, NewRecorder will use the first device returned by ListDevices.
	Width    int           // Preferred width, the closest capability of the device is used. If 0, 640 is used.
	Height   int           // Preferred height. If 0, 480 is used.
}

type device struct {
	ID          string
	Name        string
	DeviceClass string
	RawCaps     []string
	inCapMode   bool
}

var widthRegexp = regexp.MustCompile("width=([0-9]+)[^0-9]")
var heightRegexp = regexp.MustCompile("height=([0-9]+)[^0-9]")
var framerateRegexp = regexp.MustCompile("framerate=([0-9]+)[^0-9]")

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// ListDevices returns a list of devices that can be used for recording.
// ListDevices returns an error if no devices are available.
func ListDevices() ([]camera.Info, error) {
	cmd := exec.Command("gst-device-monitor-1.0")
	buf, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("listing devices using gst-device-monitor-1.0: %v", err)
	}
	return parseDevices(buf)
}

func parseDevices(buf []byte) ([]camera.Info, error) {
	var r []device
	var d *device
	b := bufio.NewScanner(bytes.NewReader(buf))
	for b.Scan() {
		s := strings.TrimSpace(b.Text())
		if s == "" {
			continue
		}
		if s == "Device found:" {
			if d != nil {
				r = append(r, *d)
			}
			d = &device{}
			continue
		}

		if d == nil {
			continue
		}

		switch {
		case strings.HasPrefix(s, "name  :"):
			d.Name = strings.TrimSpace(strings.SplitN(s, ":", 2)[1])
		case strings.HasPrefix(s, "class :"):
			d.DeviceClass = strings.TrimSpace(strings.SplitN(s, ":", 2)[1])
		case strings.HasPrefix(s, "caps  :"):
			d.RawCaps = append(d.RawCaps, strings.TrimSpace(strings.SplitN(s, ":", 2)[1]))
			d.inCapMode = true
		case strings.HasPrefix(s, "properties:"):
			d.inCapMode = false
		case d.inCapMode:
			d.RawCaps = append(d.RawCaps, s)
		case strings.HasPrefix(s, "device.path ="):
			d.ID = strings.TrimSpace(strings.SplitN(s, "=", 2)[1])
		}
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	if d != nil && d.ID != "" {
		r = append(r, *d)
	}

	var devs []camera.Info
	for _, d := range r {
		if d.DeviceClass != "Video/Source" {
			continue
		}
		var caps []camera.Cap
		for _, rc := range d.RawCaps {
			if !strings.HasPrefix(rc, "video/x-raw") {
				continue
			}
			mw := widthRegexp.FindStringSubmatch(rc)
			mh := heightRegexp.FindStringSubmatch(rc)
			mf := framerateRegexp.FindStringSubmatch(rc)
			if mw == nil || mh == nil || mf == nil {
				continue
			}
			width, werr := strconv.ParseInt(mw[1], 10, 32)
			height, herr := strconv.ParseInt(mh[1], 10, 32)
			framerate, ferr := strconv.ParseInt(mf[1], 10, 32)
			if werr != nil || herr != nil || ferr != nil {
				continue
			}
			if width != 0 && height != 0 && framerate != 0 {
				caps = append(caps, camera.Cap{
					Type:      "video/x-raw",
					Width:     int(width),
					Height:    int(height),
					Framerate: int(framerate),
				})
			}
		}
		if len(caps) == 0 {
			continue
		}
		devs = append(devs, camera.Info{
			ID:   d.ID,
			Name: d.Name,
			Caps: caps,
		})
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no devices found")
	}
	return devs, nil
}

// closestCap returns the capability with size closest to width x height.
func closestCap(caps []camera.Cap, width, height int) camera.Cap {
	distance := func(a camera.Cap) int {
		return abs(a.Width-width)*abs(a.Height-height) + abs(a.Width-width) + abs(a.Height-height)
	}
	l := append([]camera.Cap{}, caps...)
	sort.SliceStable(l, func(i, j int) bool {
		return distance(l[i]) < distance(l[j])
	})
	return l[0]
}

// NewRecorder creates a new recorder using gstreamer. Gstreamer writes images
// to a temporary directory. These files are read and sent over the channel
// returned by Events.
//
// Callers must call Close to clean up.
func NewRecorder(opts RecorderOpts) (*camera.ProcessRecorder, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %v", err)
	}
	var dev camera.Info
	if opts.DeviceID == "" {
		dev = devices[0]
	} else {
		for _, d := range devices {
			if d.ID == opts.DeviceID {
				dev = d
				break
			}
		}
		if dev.ID == "" {
			return nil, fmt.Errorf("device %q not found", opts.DeviceID)
		}
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 480
	}
	c := closestCap(dev.Caps, opts.Width, opts.Height)

	args := []string{
		"v4l2src",
		"device=" + dev.ID,
		"!",
		fmt.Sprintf("video/x-raw,width=%d,height=%d", c.Width, c.Height),
		"!",
		"videoconvert",
		"!",
		"jpegenc",
		"!",
		"multifilesink",
		"location=test%05d.jpg",
	}

	return camera.StartProcess(camera.ProcessOpts{
		Name:        "gst-launch-1.0",
		Args:        args,
		Verbose:     opts.Verbose,
		Interval:    opts.Interval,
		InstallHint: errInstallHint,
		Ready: func(ev fsnotify.Event) bool {
			return !ev.Has(fsnotify.Remove)
		},
	})
}

// Driver opens /dev/video<index> through gstreamer.
type Driver struct {
	Verbose  bool
	Interval time.Duration
}

// Check that Driver implements interface camera.Driver.
var _ camera.Driver = Driver{}

// Open returns a device that starts gstreamer on its first read.
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
