package camera

import (
	"os"
)

// TempDir returns either a temporary directory in /dev/shm (if it exists), or
// otherwise in the OS default temporary directory. Recorders write their
// images here, so memory-backed storage saves wear on SD cards.
func TempDir() (string, error) {
	// Check if /dev/shm exists first. Don't want to accidentially create a
	// directory in /dev (if someones runs this as root).
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		dir, err := os.MkdirTemp("/dev/shm", "motion-sensor")
		if err == nil {
			return dir, nil
		}
	}
	return os.MkdirTemp("", "motion-sensor")
}
