package camera

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ProcessOpts describes an external command that writes JPEG images into its
// working directory.
type ProcessOpts struct {
	Name        string        // Executable to run, e.g. "ffmpeg".
	Args        []string      // Arguments. Output files must be relative to the working directory.
	Verbose     bool          // Print verbose logging, and pass through the command's output.
	Interval    time.Duration // Minimum time between images. Images arriving sooner are dropped.
	InstallHint error         // Returned instead of exec.ErrNotFound if the executable is missing.

	// Ready reports whether a file event means the image is completely
	// written. The written file is opened and decoded only if Ready returns
	// true.
	Ready func(ev fsnotify.Event) bool
}

// ProcessRecorder is an image recorder running an external command. The
// command writes images to a temporary directory. These files are read,
// removed, and sent over the channel returned by Events.
type ProcessRecorder struct {
	opts        ProcessOpts
	imageEvents chan Event
	tempDir     string
	cancel      context.CancelFunc
	watcher     *fsnotify.Watcher
	done        chan struct{}
	closeOnce   sync.Once

	// Files that could not be read, removed once a later image decodes. Only
	// used by the watch goroutine.
	stale map[string]struct{}
}

// Check that ProcessRecorder implements interface Recorder.
var _ Recorder = (*ProcessRecorder)(nil)

// Events returns a channel on which Events can be received.
func (r *ProcessRecorder) Events() chan Event {
	return r.imageEvents
}

// StartProcess starts the command in a new temporary directory and watches
// the directory for images.
//
// Callers must call Close to clean up.
func StartProcess(opts ProcessOpts) (recorder *ProcessRecorder, rerr error) {
	r := &ProcessRecorder{
		opts:        opts,
		imageEvents: make(chan Event),
		done:        make(chan struct{}),
	}

	// Ensure cleanup in case of failure.
	defer func() {
		if rerr != nil {
			r.Close()
		}
	}()

	tempDir, err := TempDir()
	if err != nil {
		return nil, fmt.Errorf("making temp dir: %v", err)
	}
	r.tempDir = tempDir
	r.logf("%s recorder, writing images to tempdir %s", opts.Name, r.tempDir)

	// Watch before starting, the first image may arrive quickly.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new file change watcher: %v", err)
	}
	r.watcher = watcher
	if err := watcher.Add(r.tempDir); err != nil {
		return nil, fmt.Errorf("registering file change watcher for temp dir: %v", err)
	}
	go r.watch()

	r.logf("starting %s %s", opts.Name, strings.Join(opts.Args, " "))

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	cmd := exec.CommandContext(ctx, opts.Name, opts.Args...)
	cmd.Dir = r.tempDir
	if opts.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) && opts.InstallHint != nil {
			err = opts.InstallHint
		}
		return nil, fmt.Errorf("starting %s: %v", opts.Name, err)
	}
	go func() {
		err := cmd.Wait()
		if err == nil {
			err = errors.New("no error")
		}
		r.send(Event{Err: fmt.Errorf("%s exited: %v", opts.Name, err)})
	}()

	return r, nil
}

func (r *ProcessRecorder) logf(format string, args ...interface{}) {
	if r.opts.Verbose {
		log.Printf(format, args...)
	}
}

// send delivers ev unless the recorder is closed.
func (r *ProcessRecorder) send(ev Event) {
	select {
	case r.imageEvents <- ev:
	case <-r.done:
	}
}

func (r *ProcessRecorder) watch() {
	var last time.Time
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".jpg") || (r.opts.Ready != nil && !r.opts.Ready(ev)) {
				continue
			}
			now := time.Now()
			if now.Sub(last) < r.opts.Interval*9/10 {
				if err := os.Remove(ev.Name); err != nil {
					r.logf("removing skipped image %q: %v", ev.Name, err)
				}
				continue
			}
			f, err := os.Open(ev.Name)
			if err != nil {
				r.logf("open written file %q: %v", ev.Name, err)
				r.markStale(ev.Name)
				continue
			}
			img, err := jpeg.Decode(f)
			f.Close()
			if err != nil {
				r.logf("decoding jpeg %q: %v (may be partially written)", ev.Name, err)
				r.markStale(ev.Name)
				continue
			}
			delete(r.stale, ev.Name)
			if err := os.Remove(ev.Name); err != nil {
				r.logf("removing image %s: %v", ev.Name, err)
			}
			r.sweepStale()
			select {
			case r.imageEvents <- Event{Image: img}:
				last = now
			default:
				r.logf("dropping image, reader still busy")
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.send(Event{Err: fmt.Errorf("watching for changes: %v", err)})
		}
	}
}

// markStale remembers a file that failed to open or decode. It may still be
// completed by a later write event.
func (r *ProcessRecorder) markStale(name string) {
	if r.stale == nil {
		r.stale = map[string]struct{}{}
	}
	r.stale[name] = struct{}{}
}

// sweepStale removes files that never became a readable image. Called after a
// newer image decoded, so the command has moved past them.
func (r *ProcessRecorder) sweepStale() {
	for name := range r.stale {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logf("removing unreadable image %s: %v", name, err)
		}
		delete(r.stale, name)
	}
}

// Close shuts down the recorder, stopping the command and removing the
// temporary directory.
func (r *ProcessRecorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		if r.cancel != nil {
			r.cancel()
		}
		if r.watcher != nil {
			r.watcher.Close()
		}
		if r.tempDir != "" {
			os.RemoveAll(r.tempDir)
		}
	})
	return nil
}
