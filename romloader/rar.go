package romloader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

func (r reader) extractFromRAR(path string) (*Content, error) {
	rr, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rar: %w", err)
	}
	defer rr.Close()

	for {
		header, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rar entry: %w", err)
		}
		if header.IsDir || !r.validName(header.Name) {
			continue
		}

		data, err := r.limitedRead(rr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		return &Content{Data: data, Name: filepath.Base(header.Name), Archive: "rar"}, nil
	}

	return nil, ErrNoROMFile
}
