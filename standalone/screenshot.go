package standalone

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.design/x/clipboard"
	"golang.org/x/image/draw"

	"github.com/user-none/retrohost/standalone/storage"
)

// screenshotScale is the integer upscale applied to saved screenshots.
const screenshotScale = 2

// ScreenshotManager handles taking and saving screenshots
type ScreenshotManager struct {
	log *zap.Logger
	dir func() (string, error)

	clipOnce sync.Once
	clipErr  error
}

// NewScreenshotManager creates a screenshot manager that writes into the
// storage screenshots directory.
func NewScreenshotManager(log *zap.Logger) *ScreenshotManager {
	return &ScreenshotManager{
		log: log,
		dir: storage.GetScreenshotDir,
	}
}

// ScaleImage enlarges src by an integer factor with nearest-neighbor
// sampling so pixel edges stay sharp.
func ScaleImage(src image.Image, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// TakeScreenshot saves img as <content>-<unix time>.png and returns the
// path written.
func (m *ScreenshotManager) TakeScreenshot(img image.Image, romPath string) (string, error) {
	screenshotDir, err := m.dir()
	if err != nil {
		return "", err
	}

	// Ensure directory exists
	if err := os.MkdirAll(screenshotDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	data, err := encodePNG(ScaleImage(img, screenshotScale))
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%d.png", storage.ContentName(romPath), time.Now().Unix())
	fullPath := filepath.Join(screenshotDir, name)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	m.log.Info("saved screenshot", zap.String("path", fullPath))
	return fullPath, nil
}

// CopyToClipboard places img on the system clipboard as a PNG.
func (m *ScreenshotManager) CopyToClipboard(img image.Image) error {
	m.clipOnce.Do(func() {
		m.clipErr = clipboard.Init()
	})
	if m.clipErr != nil {
		return fmt.Errorf("clipboard not available: %w", m.clipErr)
	}

	data, err := encodePNG(ScaleImage(img, screenshotScale))
	if err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, data)
	m.log.Info("copied screenshot to clipboard")
	return nil
}
