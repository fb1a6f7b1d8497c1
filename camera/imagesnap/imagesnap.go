// Package imagesnap implements an image recorder with the imagesnap command
// for macOS.
package imagesnap

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/edgeimpulse/motion-sdk-go/camera"

	"github.com/fsnotify/fsnotify"
)

// ListDevices returns all image capturing devices available to imagesnap.
// ListDevices returns an error if no devices are available.
func ListDevices() ([]camera.Info, error) {
	cmd := exec.Command("imagesnap", "-l")
	buf, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing devices with imagesnap -l: %v", err)
	}
	return parseDevices(string(buf))
}

func parseDevices(s string) ([]camera.Info, error) {
	devs := []camera.Info{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "=> ") {
			// Newer format, example: "=> FaceTime HD Camera (Built-in)"
			name := line[len("=> "):]
			devs = append(devs, camera.Info{Name: name, ID: name})
		} else if strings.HasPrefix(line, "<") {
			// Older format, example: "<AVCaptureDALDevice: 0x7fa2c7852fd0 [FaceTime HD Camera (Built-in)][0x8020000005ac8514]>"
			t := strings.Split(line, "[")
			if len(t) < 2 {
				continue
			}
			name := strings.Split(t[1], "]")[0]
			devs = append(devs, camera.Info{Name: name, ID: name})
		}
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no devices available")
	}
	return devs, nil
}

// RecorderOpts has options for a new imagesnap recorder. Imagesnap has no
// control over the image size.
type RecorderOpts struct {
	Verbose  bool
	Interval time.Duration // How often to record an image.
	DeviceID string        // As returned by ListDevices. If empty, NewRecorder will use the first device returned by ListDevices.
}

// NewRecorder creates a new recorder by starting imagesnap, making it write
// images to a temporary directory. These images are read and sent on the
// channel returned by Events.
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
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}

	args := []string{
		"-d", opts.DeviceID,
		"-t", fmt.Sprintf("%.2f", interval.Seconds()),
	}

	return camera.StartProcess(camera.ProcessOpts{
		Name:     "imagesnap",
		Args:     args,
		Verbose:  opts.Verbose,
		Interval: opts.Interval,
		Ready: func(ev fsnotify.Event) bool {
			return ev.Has(fsnotify.Create)
		},
	})
}

// Driver opens the index-th device listed by imagesnap.
type Driver struct {
	Verbose  bool
	Interval time.Duration
}

// Check that Driver implements interface camera.Driver.
var _ camera.Driver = Driver{}

// Open looks up the device and returns a device that starts imagesnap on its
// first read.
func (d Driver) Open(index int) (camera.Device, error) {
	devs, err := ListDevices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devs) {
		return nil, fmt.Errorf("no camera with index %d, %d available", index, len(devs))
	}
	id := devs[index].ID
	return camera.NewRecorderDevice(index, func(index, width, height int) (camera.Recorder, error) {
		if d.Verbose {
			log.Printf("imagesnap cannot set image size, ignoring requested %dx%d", width, height)
		}
		r, err := NewRecorder(RecorderOpts{
			Verbose:  d.Verbose,
			Interval: d.Interval,
			DeviceID: id,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	}), nil
}
