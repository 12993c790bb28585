package standalone

import (
	"errors"

	"github.com/sqweek/dialog"
)

// ErrNoContent is returned when the user closes the content picker without
// choosing a file.
var ErrNoContent = errors.New("no content selected")

// PickContent shows a native file dialog filtered to the extensions the
// core accepts, starting in startDir when it is set.
func PickContent(startDir string, extensions []string) (string, error) {
	b := dialog.File().Title("Open content")
	if len(extensions) > 0 {
		b = b.Filter("Supported content", extensions...)
	}
	b = b.Filter("All files", "*")
	if startDir != "" {
		b = b.SetStartDir(startDir)
	}

	path, err := b.Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", ErrNoContent
	}
	return path, err
}
