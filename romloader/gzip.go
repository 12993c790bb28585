package romloader

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// extractFromGzip handles both plain .gz files and tar.gz archives.
func (r reader) extractFromGzip(f io.Reader, path string) (*Content, error) {
	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return r.extractFromTar(gr)
	}

	// Plain .gz: the payload is the content, named after the archive
	data, err := r.limitedRead(gr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip: %w", err)
	}
	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	return &Content{Data: data, Name: name, Archive: "gzip"}, nil
}

func (r reader) extractFromTar(src io.Reader) (*Content, error) {
	tr := tar.NewReader(src)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !r.validName(header.Name) {
			continue
		}

		data, err := r.limitedRead(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from tar: %w", header.Name, err)
		}
		return &Content{Data: data, Name: filepath.Base(header.Name), Archive: "gzip"}, nil
	}
	return nil, ErrNoROMFile
}
