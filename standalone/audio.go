package standalone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const audioSampleRate = 48000

// ringBufferCapacity is ~167ms at 48kHz stereo 16-bit (~32KB).
const ringBufferCapacity = 32768

// AudioPlayer manages audio playback via oto.
// Core audio is resampled to the device rate and written to a ring buffer
// which oto's player reads from in a pull model.
type AudioPlayer struct {
	player     *oto.Player
	ringBuffer *AudioRingBuffer

	mu        sync.Mutex
	resampler *Resampler
}

// oto context singleton
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext initializes the oto audio context on first use.
func ensureOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   audioSampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond, // Reduce OS AudioQueue from default ~100ms
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-readyChan
	})
	return otoCtx, otoInitErr
}

// NewAudioPlayer creates and initializes audio playback via oto.
// The volume parameter sets the initial volume before playback starts,
// preventing audio pops when muted.
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	rb := NewAudioRingBuffer(ringBufferCapacity)
	player := ctx.NewPlayer(rb)
	// Reduce mux player buffer from default 96000 bytes (0.5s) to ~19200 bytes
	// (~50ms) so latency stays close to one frame of video.
	player.SetBufferSize(19200)
	// Set volume before Play() to avoid pop when muted
	player.SetVolume(clampVolume(volume))
	player.Play()

	return &AudioPlayer{
		player:     player,
		ringBuffer: rb,
		resampler:  NewResampler(audioSampleRate, audioSampleRate),
	}, nil
}

// SetSourceRate sets the core's sample rate. Buffered audio at the old rate
// is dropped.
func (a *AudioPlayer) SetSourceRate(rate int) {
	a.mu.Lock()
	a.resampler.SetSourceRate(rate)
	a.mu.Unlock()
	a.ringBuffer.Clear()
}

// QueueSamples resamples interleaved S16LE stereo audio from the core and
// writes it to the ring buffer for oto to consume.
func (a *AudioPlayer) QueueSamples(samples []byte) {
	if len(samples) == 0 {
		return
	}
	a.mu.Lock()
	out := a.resampler.Process(samples)
	a.ringBuffer.Write(out)
	a.mu.Unlock()
}

// ClearQueue drops queued audio so sound from before a reset or state load
// is not played after it. The resampler restarts from the next sample.
func (a *AudioPlayer) ClearQueue() {
	a.mu.Lock()
	a.resampler.Reset()
	a.mu.Unlock()
	a.ringBuffer.Clear()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = normal, 2.0 = max).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(clampVolume(vol))
}

func clampVolume(vol float64) float64 {
	if vol < 0 {
		return 0
	} else if vol > 2.0 {
		return 2.0
	}
	return vol
}

// Close cleans up audio resources.
func (a *AudioPlayer) Close() {
	if a.ringBuffer != nil {
		a.ringBuffer.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
