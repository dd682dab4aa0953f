// Package document checks requirement documents locally before they are uploaded.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize matches the upload limit of the backend.
const MaxFileSize = 10 << 20

var (
	ErrEmpty       = errors.New("file is empty")
	ErrTooLarge    = errors.New("file is too large")
	ErrUnsupported = errors.New("unsupported file format")
	ErrMismatch    = errors.New("file content does not match its extension")
)

type Format struct {
	Kind        string
	Description string
	// MIME types accepted for content detected from the file.
	MIME []string
}

var formats = map[string]Format{
	".xlsx": {
		Kind:        "excel",
		Description: "Excel workbook",
		MIME:        []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	},
	".xls": {
		Kind:        "excel",
		Description: "Excel 97-2003 workbook",
		MIME:        []string{"application/vnd.ms-excel", "application/x-ole-storage"},
	},
	".csv": {
		Kind:        "csv",
		Description: "CSV file",
		MIME:        []string{"text/csv", "text/plain"},
	},
	".docx": {
		Kind:        "word",
		Description: "Word document",
		MIME:        []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	},
}

// SupportedExtensions returns the accepted extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

type File struct {
	Path   string
	Name   string
	Ext    string
	Size   int64
	MIME   string
	Format Format
}

// Preflight validates the file at path and detects its content type.
func Preflight(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	format, ok := formats[ext]
	if !ok {
		return nil, fmt.Errorf("%w %q, supported: %s", ErrUnsupported, ext, strings.Join(SupportedExtensions(), ", "))
	}

	switch {
	case info.Size() == 0:
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	case info.Size() > MaxFileSize:
		return nil, fmt.Errorf("%w: %s is %s, limit is %s", ErrTooLarge, path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(MaxFileSize))
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detecting type of %s: %w", path, err)
	}
	if !mimeIn(detected, format.MIME) {
		return nil, fmt.Errorf("%w: %s looks like %s", ErrMismatch, path, detected.String())
	}

	return &File{
		Path:   path,
		Name:   filepath.Base(path),
		Ext:    ext,
		Size:   info.Size(),
		MIME:   detected.String(),
		Format: format,
	}, nil
}

// mimeIn reports whether the detected type or one of its parents is listed.
func mimeIn(detected *mimetype.MIME, accepted []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, want := range accepted {
			if m.Is(want) {
				return true
			}
		}
	}
	return false
}

// ContentType is the type sent with the upload. It prefers the canonical type
// of the extension over a generic container type.
func (f *File) ContentType() string {
	return f.Format.MIME[0]
}

func (f *File) HumanSize() string {
	return humanize.IBytes(uint64(f.Size))
}

func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}
