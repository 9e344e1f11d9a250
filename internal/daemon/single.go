package daemon

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// InstanceID names the lock all feeder processes contend on.
const InstanceID = "Tiny Oracle Feeder"

// Lock takes the named instance lock, a file lock in the temp
// directory. ok is false when another process holds it. The caller
// keeps the returned lock for the process lifetime; dropping it
// releases the file.
func Lock(id string) (lock *flock.Flock, ok bool, err error) {
	name := strings.ToLower(strings.ReplaceAll(id, " ", "-")) + ".lock"
	lock = flock.New(filepath.Join(os.TempDir(), name))
	ok, err = lock.TryLock()
	return lock, ok, err
}
