package bridge

import "go.uber.org/zap"

// VideoRefresh implements emucore.VideoRefresher. Rows are copied out of the
// core's buffer with any pitch padding removed and handed to the frontend
// as a tightly packed Frame.
func (s *Session) VideoRefresh(data []byte, width, height, pitch int) {
	if data == nil {
		// Dupe: the frontend keeps showing the previous frame
		return
	}

	s.mu.Lock()
	format := s.pixelFormat
	s.mu.Unlock()

	rowBytes := width * format.BytesPerPixel()
	if width <= 0 || height <= 0 || pitch < rowBytes || len(data) < pitch*(height-1)+rowBytes {
		s.log.Debug("dropping malformed frame",
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Int("pitch", pitch),
			zap.Int("size", len(data)))
		return
	}

	s.mu.Lock()
	s.firstFrame = true
	s.mu.Unlock()

	if s.front.Video == nil {
		return
	}
	f := s.frames.Get(width, height, format)
	Repack(f.Pix, data, rowBytes, height, pitch)
	s.front.Video(f)
}
