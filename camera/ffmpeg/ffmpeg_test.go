package ffmpeg

import (
	"reflect"
	"testing"

	"github.com/edgeimpulse/motion-sdk-go/camera"
)

func TestParseDevices(t *testing.T) {
	const s = `bcm2835-codec-decode (platform:bcm2835-codec):
	/dev/video10
	/dev/video11

HD Pro Webcam C920 (usb-0000:00:14.0-1):
	/dev/video0
	/dev/video1
	/dev/media0
`

	devs, err := parseDevices(s)
	if err != nil {
		t.Fatalf("parsing v4l2-ctl output: %v", err)
	}
	exp := []camera.Info{
		{ID: "/dev/video0", Name: "HD Pro Webcam C920 (usb-0000:00:14.0-1) (/dev/video0)"},
		{ID: "/dev/video1", Name: "HD Pro Webcam C920 (usb-0000:00:14.0-1) (/dev/video1)"},
	}
	if !reflect.DeepEqual(devs, exp) {
		t.Fatalf("v4l2 devices, got %v, expected %v", devs, exp)
	}

	if _, err := parseDevices("bcm2835-isp (platform:bcm2835-isp):\n\t/dev/video13\n"); err == nil {
		t.Fatalf("missing error for output without usable devices")
	}
}

func TestDriverOpen(t *testing.T) {
	if _, err := (Driver{}).Open(-1); err == nil {
		t.Fatalf("missing error for negative camera index")
	}
	dev, err := (Driver{}).Open(0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// Nothing was started, closing does not touch ffmpeg.
	if err := dev.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
