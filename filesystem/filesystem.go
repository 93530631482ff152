package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	ErrFileNotFound = errors.New("filesystem: file not found")
	ErrInvalidPath  = errors.New("filesystem: invalid path")
)

// Filesystem is the read side the server needs from a document root, plus
// append-only files for logs.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)
	FileExists(path string) (bool, error)
	OpenAppend(path string) (io.WriteCloser, error)
}

type localFileSystem struct {
}

func NewLocalFileSystem() Filesystem {
	return &localFileSystem{}
}

// FileExists reports whether anything, file or directory, exists at path.
func (filesystem *localFileSystem) FileExists(path string) (bool, error) {
	if path == "" {
		return false, ErrInvalidPath
	}

	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (filesystem *localFileSystem) ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}

	return content, nil
}

// OpenAppend opens path for appending, creating the file and its parent
// directories when missing.
func (filesystem *localFileSystem) OpenAppend(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	}

	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
