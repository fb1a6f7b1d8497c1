package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	for _, name := range []string{a, b} {
		if err := os.WriteFile(name, []byte("partial"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	r := &ProcessRecorder{}
	r.markStale(a)
	r.markStale(a)
	r.markStale(b)
	r.markStale(filepath.Join(dir, "gone.jpg"))
	r.sweepStale()

	for _, name := range []string{a, b} {
		if _, err := os.Stat(name); !os.IsNotExist(err) {
			t.Fatalf("%s still present after sweep: %v", name, err)
		}
	}
	if len(r.stale) != 0 {
		t.Fatalf("stale files remembered after sweep: %v", r.stale)
	}
}

func TestWatchRemovesUnreadable(t *testing.T) {
	dir := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := watcher.Add(dir); err != nil {
		t.Fatalf("watch dir: %v", err)
	}
	r := &ProcessRecorder{
		imageEvents: make(chan Event),
		tempDir:     dir,
		watcher:     watcher,
		done:        make(chan struct{}),
	}
	go r.watch()
	defer r.Close()

	bad := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(bad, []byte("not a jpeg"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Images are dropped while nobody is receiving, keep writing until one
	// arrives.
	for i := 0; ; i++ {
		if i == 20 {
			t.Fatalf("no image received")
		}
		name := filepath.Join(dir, fmt.Sprintf("good-%d.jpg", i))
		if err := os.WriteFile(name, buf.Bytes(), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		select {
		case ev := <-r.Events():
			if ev.Err != nil {
				t.Fatalf("event error: %v", ev.Err)
			}
			if _, err := os.Stat(bad); !os.IsNotExist(err) {
				t.Fatalf("unreadable image still present after next image: %v", err)
			}
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}
