package romloader

import (
	"archive/zip"
	"fmt"
	"path/filepath"
)

func (r reader) extractFromZIP(path string) (*Content, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !r.validName(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		data, err := r.limitedRead(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return &Content{Data: data, Name: filepath.Base(f.Name), Archive: "zip"}, nil
	}

	return nil, ErrNoROMFile
}
