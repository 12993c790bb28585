package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioSample_Interleaving(t *testing.T) {
	var got [][]byte
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{
		Audio: func(b []byte) { got = append(got, append([]byte(nil), b...)) },
	}})

	s.AudioSample(0x1234, -2)
	s.AudioSample(-32768, 32767)

	require.Len(t, got, 2)
	assert.Equal(t, []byte{0x34, 0x12, 0xFE, 0xFF}, got[0])
	assert.Equal(t, []byte{0x00, 0x80, 0xFF, 0x7F}, got[1])
}

func TestAudioSample_ReusesBuffer(t *testing.T) {
	var bases []*byte
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{
		Audio: func(b []byte) { bases = append(bases, &b[0]) },
	}})

	s.AudioSample(1, 1)
	s.AudioSample(2, 2)
	require.Len(t, bases, 2)
	assert.Same(t, bases[0], bases[1])
}

func TestAudioSampleBatch(t *testing.T) {
	var got []byte
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{
		Audio: func(b []byte) { got = b },
	}})

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, 2, s.AudioSampleBatch(data, 2))
	assert.Equal(t, data, got)
	assert.Same(t, &data[0], &got[0], "batch is forwarded without copying")

	// Frames beyond the buffer are not read
	assert.Equal(t, 2, s.AudioSampleBatch(data, 10))
	assert.Len(t, got, 8)

	assert.Equal(t, 1, s.AudioSampleBatch(data, 1))
	assert.Len(t, got, 4)

	assert.Equal(t, 0, s.AudioSampleBatch(data, 0))
	assert.Equal(t, 0, s.AudioSampleBatch(nil, 4))
}

func TestAudio_NoFrontend(t *testing.T) {
	s, _ := loadedSession(t, newFakeCore(), Options{})
	s.AudioSample(1, 2)
	assert.Equal(t, 3, s.AudioSampleBatch(make([]byte, 12), 3))
}
