package standalone

import "encoding/binary"

// Resampler converts interleaved stereo signed 16-bit little-endian audio
// from a core's sample rate to the output device rate by linear
// interpolation. The last input frame and the fractional read position
// carry over between calls so consecutive batches join without clicks.
type Resampler struct {
	srcRate int
	dstRate int
	step    float64 // input frames consumed per output frame
	pos     float64 // read position; 0 is the carried-over frame
	prev    [2]int16
	primed  bool
	out     []byte
}

// NewResampler creates a resampler from srcRate to dstRate.
func NewResampler(srcRate, dstRate int) *Resampler {
	r := &Resampler{dstRate: dstRate}
	r.SetSourceRate(srcRate)
	return r
}

// SetSourceRate changes the input rate and drops any carried-over state.
func (r *Resampler) SetSourceRate(rate int) {
	r.srcRate = rate
	r.step = 1
	if rate > 0 && r.dstRate > 0 {
		r.step = float64(rate) / float64(r.dstRate)
	}
	r.Reset()
}

// Reset drops the carried-over frame so the next batch starts a new stream.
func (r *Resampler) Reset() {
	r.pos = 0
	r.primed = false
}

// Process resamples one batch. When the rates match the input is returned
// as is. The returned slice is reused by the next call.
func (r *Resampler) Process(in []byte) []byte {
	n := len(in) / 4
	if n == 0 {
		return nil
	}
	if r.srcRate == r.dstRate || r.srcRate <= 0 {
		return in[:n*4]
	}

	// The first frame of a stream has nothing before it; start exactly on it
	if !r.primed {
		r.prev = frameAt(in, 0)
		r.pos = 1
		r.primed = true
	}

	r.out = r.out[:0]
	for {
		i := int(r.pos)
		if i >= n {
			break
		}
		a := r.prev
		if i > 0 {
			a = frameAt(in, i-1)
		}
		b := frameAt(in, i)
		frac := r.pos - float64(i)

		l := lerp(a[0], b[0], frac)
		rt := lerp(a[1], b[1], frac)
		r.out = append(r.out, byte(l), byte(l>>8), byte(rt), byte(rt>>8))
		r.pos += r.step
	}

	r.pos -= float64(n)
	r.prev = frameAt(in, n-1)
	return r.out
}

func frameAt(buf []byte, i int) [2]int16 {
	return [2]int16{
		int16(binary.LittleEndian.Uint16(buf[i*4:])),
		int16(binary.LittleEndian.Uint16(buf[i*4+2:])),
	}
}

func lerp(a, b int16, t float64) int16 {
	return int16(float64(a) + (float64(b)-float64(a))*t)
}
