package output

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fbz-tec/dbxport/internal/logger"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func newGzipWriter(path string) (*Destination, error) {
	return newStreamWriter(path, ".gz", "gzip", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
}

func newZstdWriter(path string) (*Destination, error) {
	return newStreamWriter(path, ".zst", "zstd", func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

func newLz4Writer(path string) (*Destination, error) {
	return newStreamWriter(path, ".lz4", "lz4", func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	})
}

// newStreamWriter appends ext to path when missing and stacks a compressor
// built by wrap on top of the file.
func newStreamWriter(path, ext, label string, wrap func(io.Writer) (io.WriteCloser, error)) (*Destination, error) {
	start := time.Now()
	if !strings.HasSuffix(strings.ToLower(path), ext) {
		path += ext
	}
	logger.Debug("Creating %s-compressed output file: %s", label, path)

	file, err := createFile(path)
	if err != nil {
		return nil, err
	}
	cw, err := wrap(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error creating %s writer: %w", label, err)
	}

	return &Destination{
		Path: path,
		WriteCloser: &layered{
			Writer: cw,
			layers: []io.Closer{cw, file},
			done:   func() { logger.Debug("%s file %s closed in %v", label, path, time.Since(start)) },
		},
	}, nil
}

// newZipWriter writes a single-entry archive. The archive path always ends in
// .zip; the entry is named after it, with the format as extension.
func newZipWriter(path, format string) (*Destination, error) {
	start := time.Now()
	archive := replaceExtension(path, ".zip")
	logger.Debug("Creating zip-compressed output file: %s", archive)

	file, err := createFile(archive)
	if err != nil {
		return nil, err
	}
	zw := zip.NewWriter(file)
	entry := zipEntryName(archive, format)
	w, err := zw.Create(entry)
	if err != nil {
		zw.Close()
		file.Close()
		return nil, fmt.Errorf("error creating zip entry %s: %w", entry, err)
	}
	logger.Debug("Writing zip entry: %s", entry)

	return &Destination{
		Path: archive,
		WriteCloser: &layered{
			Writer: w,
			layers: []io.Closer{zw, file},
			done:   func() { logger.Debug("zip archive %s closed in %v", archive, time.Since(start)) },
		},
	}, nil
}

// zipEntryName is the lowercased archive base name without .zip. Formats
// other than template get their extension appended unless already present.
func zipEntryName(archive, format string) string {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(archive)), ".zip")
	if name == "" {
		name = "export"
	}
	if format == "" || format == "template" {
		return name
	}
	if ext := "." + format; !strings.HasSuffix(name, ext) {
		name += ext
	}
	return name
}

// replaceExtension swaps the last extension of path for ext, unless it is
// already ext in any case.
func replaceExtension(path, ext string) string {
	cur := filepath.Ext(path)
	if strings.EqualFold(cur, ext) {
		return path
	}
	return strings.TrimSuffix(path, cur) + ext
}
