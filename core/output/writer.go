// Package output creates export destinations: path resolution, parent
// directory creation and optional compression.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fbz-tec/dbxport/internal/logger"
)

const (
	None = "none"
	GZIP = "gzip"
	ZIP  = "zip"
	ZSTD = "zstd"
	LZ4  = "lz4"
)

// Compressions lists the accepted compression names.
var Compressions = []string{None, GZIP, ZIP, ZSTD, LZ4}

// OutputConfig holds configuration for output file creation.
type OutputConfig struct {
	Path        string
	Compression string
	Format      string
}

// Destination is an open export target. Path is the file actually written,
// after home expansion and compression suffixes.
type Destination struct {
	io.WriteCloser
	Path string
}

// CreateWriter resolves cfg.Path, creates missing parent directories and
// opens a writer for the requested compression. Closing the destination
// flushes and releases every layer.
func CreateWriter(cfg OutputConfig) (*Destination, error) {
	path, err := ResolvePath(cfg.Path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Compression)) {
	case None, "":
		return newFileWriter(path)
	case GZIP:
		return newGzipWriter(path)
	case ZIP:
		return newZipWriter(path, cfg.Format)
	case ZSTD:
		return newZstdWriter(path)
	case LZ4:
		return newLz4Writer(path)
	default:
		return nil, fmt.Errorf("unsupported compression type %q", cfg.Compression)
	}
}

// ResolvePath expands a leading "~/" to the user's home directory.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// createFile creates path, and its parent directory when missing.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return file, nil
}

func newFileWriter(path string) (*Destination, error) {
	logger.Debug("Creating uncompressed output file: %s", path)
	file, err := createFile(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(file, fileBufferSize)
	flush := closeFunc(func() error {
		if err := buf.Flush(); err != nil {
			return fmt.Errorf("error flushing buffer: %w", err)
		}
		return nil
	})
	return &Destination{Path: path, WriteCloser: &layered{Writer: buf, layers: []io.Closer{flush, file}}}, nil
}

const fileBufferSize = 256 << 10

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// layered writes to the outermost layer of a writer stack. Close releases
// layers outermost first, all of them even after a failure, and returns the
// first error.
type layered struct {
	io.Writer
	layers []io.Closer
	done   func()
}

func (l *layered) Close() error {
	var first error
	for _, c := range l.layers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	if l.done != nil {
		l.done()
	}
	return first
}
