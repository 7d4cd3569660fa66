package blob

import (
	"context"
	"errors"
	"fmt"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const maxNameAttempts = 5

// Local keeps images as flat files in one directory. Keys and refs are the
// generated file names.
type Local struct {
	maxFileSize int64
	basePath    string
}

// maxBytesWriter fails once more than n bytes are written
type maxBytesWriter struct {
	w io.Writer
	n int64
}

func (l *maxBytesWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > l.n {
		return 0, domain.ErrPayloadTooLarge
	}
	n, err := l.w.Write(p)
	l.n -= int64(n)
	return n, err
}

// NewLocal creates the directory if needed. maxSize caps every stored file.
func NewLocal(basePath string, maxSize int64) (*Local, error) {
	p, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create directory: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxBytes
	}

	return &Local{basePath: p, maxFileSize: maxSize}, nil
}

// Dir returns the absolute storage directory.
func (l *Local) Dir() string {
	return l.basePath
}

func (l *Local) Save(ctx context.Context, u Upload) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	tempFile, err := os.CreateTemp(l.basePath, ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("unable to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	writer := &maxBytesWriter{w: tempFile, n: l.maxFileSize}
	if _, err := io.Copy(writer, u.Body); err != nil {
		tempFile.Close()
		if errors.Is(err, domain.ErrPayloadTooLarge) {
			return Object{}, err
		}
		return Object{}, fmt.Errorf("unable to write to file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return Object{}, fmt.Errorf("unable to close temporary file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := strconv.FormatInt(time.Now().UnixNano(), 10) + ext
		// link fails instead of clobbering an existing file
		err := os.Link(tempPath, l.fullPath(name))
		if err == nil {
			return Object{Key: name, Ref: name}, nil
		}
		if !os.IsExist(err) {
			return Object{}, fmt.Errorf("unable to move temporary file to final location: %w", err)
		}
	}

	return Object{}, fmt.Errorf("unable to pick a free file name after %d attempts", maxNameAttempts)
}

// Open returns the stored file called name.
func (l *Local) Open(name string) (*os.File, error) {
	if !validName(name) {
		return nil, os.ErrNotExist
	}
	return os.Open(l.fullPath(name))
}

// Delete removes the file; a missing file is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if !validName(key) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	err := os.Remove(l.fullPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to delete file: %w", err)
	}
	return nil
}

func (l *Local) fullPath(name string) string {
	return filepath.Join(l.basePath, name)
}

// validName accepts plain visible file names only
func validName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
