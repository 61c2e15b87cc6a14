// FILE: lixenwraith/logfile/fs.go
package logfile

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// FileSystem is the set of filesystem operations the logger performs.
// Tests substitute implementations that inject failures.
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Open(name string) (*os.File, error)
	Rename(oldname, newname string) error
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
}

// OSFileSystem implements FileSystem using the os package
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (OSFileSystem) Open(name string) (*os.File, error) {
	return os.Open(name)
}

func (OSFileSystem) Rename(oldname, newname string) error {
	return os.Rename(oldname, newname)
}

func (OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (OSFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (OSFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// isNotExist reports errors for files another actor already removed
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// retryFileOperation retries operation with a fixed delay, returning the last error
func retryFileOperation(operation func() error, retryCount int, retryDelay time.Duration) error {
	if retryCount <= 0 {
		retryCount = 3
	}
	if retryDelay <= 0 {
		retryDelay = minWaitTime
	}

	var lastErr error
	for i := 0; i < retryCount; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		// Nothing to retry once the file is gone
		if isNotExist(err) {
			return err
		}
		lastErr = err

		if i < retryCount-1 {
			time.Sleep(retryDelay)
		}
	}

	return lastErr
}
