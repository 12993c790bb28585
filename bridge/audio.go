package bridge

import "encoding/binary"

// Bytes in one interleaved stereo frame of signed 16-bit samples.
const audioFrameBytes = 4

// AudioSample implements emucore.AudioSampler. The pair is delivered as one
// little-endian stereo frame.
func (s *Session) AudioSample(left, right int16) {
	if s.front.Audio == nil {
		return
	}
	buf := s.samples.Get(audioFrameBytes)
	binary.LittleEndian.PutUint16(buf[0:], uint16(left))
	binary.LittleEndian.PutUint16(buf[2:], uint16(right))
	s.front.Audio(buf)
}

// AudioSampleBatch implements emucore.AudioBatcher. The core's buffer is
// forwarded without copying.
func (s *Session) AudioSampleBatch(data []byte, frames int) int {
	if frames <= 0 {
		return 0
	}
	if n := len(data) / audioFrameBytes; frames > n {
		frames = n
	}
	if s.front.Audio != nil && frames > 0 {
		s.front.Audio(data[:frames*audioFrameBytes])
	}
	return frames
}
