// Command motioncam records images from a camera (eg webcam) and prints how
// much of each image changed compared to the previous one.
//
// Examples:
//
//	# List available devices and quit.
//	motioncam -listdevices
//
//	# Sample the default camera using default settings.
//	motioncam
//
//	# Sample /dev/video2 with ffmpeg at 320x240 every 100ms, smoothing over 5 samples.
//	motioncam -recorder ffmpeg -camera 2 -width 320 -height 240 -interval 100ms -smooth 5
//
//	# Use OpenCV, requires building with -tags gocv.
//	motioncam -recorder gocv -verbose
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	motion "github.com/edgeimpulse/motion-sdk-go"
	"github.com/edgeimpulse/motion-sdk-go/camera"
	"github.com/edgeimpulse/motion-sdk-go/camera/ffmpeg"
	"github.com/edgeimpulse/motion-sdk-go/camera/gstreamer"
	"github.com/edgeimpulse/motion-sdk-go/camera/imagesnap"
	"github.com/edgeimpulse/motion-sdk-go/camera/opencv"

	"github.com/disintegration/imaging"
)

var (
	listDevices  bool
	recorderType string
	cameraIndex  int
	width        int
	height       int
	interval     time.Duration
	smooth       int
	verbose      bool
	traceDir     string
)

func init() {
	if runtime.GOOS == "darwin" {
		recorderType = "imagesnap"
	} else {
		recorderType = "gstreamer"
	}

	flag.BoolVar(&listDevices, "listdevices", false, "if set, lists devices and exits")
	flag.StringVar(&recorderType, "recorder", recorderType, "type of recorder to use, imagesnap on macOS; gstreamer, ffmpeg or gocv on linux")
	flag.IntVar(&cameraIndex, "camera", 0, "index of camera to use, /dev/video<index> on linux")
	flag.IntVar(&width, "width", 640, "requested image width")
	flag.IntVar(&height, "height", 480, "requested image height")
	flag.DurationVar(&interval, "interval", 250*time.Millisecond, "how often to take an image and compare it")
	flag.IntVar(&smooth, "smooth", 0, "if > 0, also print the average motion over this many samples")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
	flag.StringVar(&traceDir, "tracedir", "", "if set, store each image and motion mask as png in the named directory")
}

func usage() {
	log.Println("usage: motioncam [flags]")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if len(flag.Args()) != 0 {
		usage()
	}
	os.Exit(main0())
}

func main0() int {
	var listFn func() ([]camera.Info, error)
	var driver camera.Driver
	switch recorderType {
	case "imagesnap":
		listFn = imagesnap.ListDevices
		driver = imagesnap.Driver{Verbose: verbose, Interval: interval}
	case "gstreamer":
		listFn = gstreamer.ListDevices
		driver = gstreamer.Driver{Verbose: verbose, Interval: interval}
	case "ffmpeg":
		listFn = ffmpeg.ListDevices
		driver = ffmpeg.Driver{Verbose: verbose, Interval: interval}
	case "gocv":
		driver = opencv.Driver{Verbose: verbose}
	default:
		log.Fatalf("unknown recorder type %q", recorderType)
	}

	if listDevices {
		if listFn == nil {
			log.Fatalf("recorder %q cannot list devices", recorderType)
		}
		devs, err := listFn()
		if err != nil {
			log.Fatalf("listing devices: %v", err)
		}
		for _, dev := range devs {
			caps := ""
			if len(dev.Caps) > 0 {
				l := []string{}
				for _, c := range dev.Caps {
					l = append(l, fmt.Sprintf("%dx%d@%dfps", c.Width, c.Height, c.Framerate))
				}
				caps = fmt.Sprintf(" (caps: %s)", strings.Join(l, " "))
			}
			fmt.Printf("%s: %s%s\n", dev.ID, dev.Name, caps)
		}
		return 0
	}

	if interval <= 0 {
		log.Fatalf("interval must be > 0")
	}

	var maf *motion.MAF
	if smooth > 0 {
		var err error
		maf, err = motion.NewMAF(smooth)
		if err != nil {
			log.Printf("new moving average filter: %v", err)
			return 1
		}
	}

	opts := &motion.SensorOpts{
		CameraIndex: cameraIndex,
		Width:       width,
		Height:      height,
		Verbose:     verbose,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	err := motion.Run(driver, opts, func(s *motion.Sensor) error {
		for seq := 0; ; seq++ {
			r := s.Motion()
			if r.Err != nil {
				log.Printf("%s", r.Err)
			} else {
				line := fmt.Sprintf("motion %.2f%%", r.Percent)
				if maf != nil {
					avg, err := maf.Update(r.Percent)
					if err != nil {
						return err
					}
					line += fmt.Sprintf(" (avg %.2f%%)", avg)
				}
				fmt.Println(line)
				if traceDir != "" {
					trace(seq, r)
				}
			}

			select {
			case <-signals:
				return nil
			case <-ticker.C:
			}
		}
	})
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	return 0
}

func trace(seq int, r motion.Result) {
	framePath := filepath.Join(traceDir, fmt.Sprintf("frame-%d.png", seq))
	if err := imaging.Save(r.Frame, framePath); err != nil {
		log.Printf("trace, writing %s: %v", framePath, err)
	} else if verbose {
		log.Printf("trace %s", framePath)
	}
	maskPath := filepath.Join(traceDir, fmt.Sprintf("mask-%d.png", seq))
	if err := imaging.Save(r.Mask, maskPath); err != nil {
		log.Printf("trace, writing %s: %v", maskPath, err)
	} else if verbose {
		log.Printf("trace %s", maskPath)
	}
}
