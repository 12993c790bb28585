// Package romloader reads game content for cores that take it as a memory
// buffer. Plain files are read as-is; ZIP, 7z, gzip, tar.gz and RAR
// archives are opened and the first entry with a valid extension is
// extracted.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// DefaultMaxSize bounds the content read into memory when Options.MaxSize
// is zero.
const DefaultMaxSize = 64 * 1024 * 1024

var (
	// ErrNoROMFile is returned when an archive has no entry with a valid
	// extension.
	ErrNoROMFile = errors.New("no content file found in archive")

	// ErrUnsupportedFormat is returned for files that are neither an
	// archive nor carry a valid extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when content exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

// Content is game data read from disk.
type Content struct {
	Data    []byte
	Name    string // Base name of the file or archive entry
	Path    string // Path that was opened
	Archive string // "zip", "7z", "gzip", "rar" or empty for a plain file
}

// Options control how content is located and read.
type Options struct {
	// Extensions the core accepts, with or without a leading dot. An empty
	// list accepts any plain file.
	Extensions []string

	// MaxSize bounds the bytes read. Zero means DefaultMaxSize.
	MaxSize int64

	// Raw disables archive extraction, for cores that handle archives
	// themselves.
	Raw bool
}

// formatType represents the detected file format
type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// reader carries normalized options through the extractors.
type reader struct {
	exts    []string
	maxSize int64
}

// Load reads the content at path.
func Load(path string, opts Options) (*Content, error) {
	r := reader{exts: normalizeExtensions(opts.Extensions), maxSize: opts.MaxSize}
	if r.maxSize <= 0 {
		r.maxSize = DefaultMaxSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if opts.Raw {
		return r.readPlain(f, path)
	}

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}

	format := r.detectFormat(header[:n], path)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek file: %w", err)
	}

	var c *Content
	switch format {
	case formatRaw:
		return r.readPlain(f, path)
	case formatZIP:
		c, err = r.extractFromZIP(path)
	case format7z:
		c, err = r.extractFrom7z(path)
	case formatGzip:
		c, err = r.extractFromGzip(f, path)
	case formatRAR:
		c, err = r.extractFromRAR(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

func (r reader) readPlain(f io.Reader, path string) (*Content, error) {
	data, err := r.limitedRead(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return &Content{Data: data, Name: filepath.Base(path), Path: path}, nil
}

// normalizeExtensions lower-cases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// detectFormat determines the file format based on magic bytes and extension.
func (r reader) detectFormat(header []byte, path string) formatType {
	ext := strings.ToLower(filepath.Ext(path))

	// A core that lists an archive extension wants the archive itself
	if r.validName(path) && len(r.exts) > 0 && isArchiveExt(path) {
		return formatRaw
	}

	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return formatZIP
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	switch ext {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	}

	if len(r.exts) == 0 || r.validName(path) {
		return formatRaw
	}
	return formatUnknown
}

func isArchiveExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip", ".7z", ".gz", ".tgz", ".rar":
		return true
	}
	return false
}

// validName reports whether name carries one of the accepted extensions.
// An empty extension list accepts everything.
func (r reader) validName(name string) bool {
	if len(r.exts) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range r.exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// limitedRead reads up to maxSize bytes, failing if there is more.
func (r reader) limitedRead(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
