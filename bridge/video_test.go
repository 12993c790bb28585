package bridge

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emucore "github.com/user-none/retrohost/api"
)

func TestVideoRefresh_RemovesPitchPadding(t *testing.T) {
	cases := []struct {
		format        emucore.PixelFormat
		width, height int
		pitch         int
	}{
		{emucore.PixelFormatXRGB8888, 3, 2, 16},
		{emucore.PixelFormatXRGB8888, 4, 3, 16},
		{emucore.PixelFormatRGB565, 5, 4, 12},
		{emucore.PixelFormat0RGB1555, 7, 3, 2048},
		{emucore.PixelFormatRGB565, 1, 1, 2},
	}

	for _, tc := range cases {
		var got *Frame
		core := newFakeCore()
		s, _ := loadedSession(t, core, Options{Frontend: Frontend{
			Video: func(f *Frame) {
				cp := *f
				cp.Pix = append([]byte(nil), f.Pix...)
				got = &cp
			},
		}})
		require.True(t, s.SetPixelFormat(tc.format))

		src := make([]byte, tc.pitch*tc.height)
		for i := range src {
			src[i] = byte(i*7 + 3)
		}
		s.VideoRefresh(src, tc.width, tc.height, tc.pitch)

		require.NotNil(t, got, "%v %dx%d", tc.format, tc.width, tc.height)
		rowBytes := tc.width * tc.format.BytesPerPixel()
		assert.Equal(t, rowBytes, got.Stride)
		assert.Len(t, got.Pix, rowBytes*tc.height)
		for y := 0; y < tc.height; y++ {
			assert.Equal(t, src[y*tc.pitch:y*tc.pitch+rowBytes], got.Pix[y*rowBytes:(y+1)*rowBytes], "row %d", y)
		}
	}
}

func TestVideoRefresh_ShortLastRow(t *testing.T) {
	var delivered int
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{Video: func(*Frame) { delivered++ }}})

	// The final row needs no trailing padding
	s.VideoRefresh(make([]byte, 8+4), 2, 2, 8)
	assert.Equal(t, 1, delivered)
}

func TestVideoRefresh_DupeDropped(t *testing.T) {
	var delivered int
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{Video: func(*Frame) { delivered++ }}})

	s.VideoRefresh(nil, 320, 224, 640)
	assert.Zero(t, delivered)
}

func TestVideoRefresh_MalformedDropped(t *testing.T) {
	var delivered int
	s, logs := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{Video: func(*Frame) { delivered++ }}})

	s.VideoRefresh(make([]byte, 64), 8, 2, 8)  // pitch smaller than a row
	s.VideoRefresh(make([]byte, 10), 4, 2, 8)  // data too short
	s.VideoRefresh(make([]byte, 64), 0, 2, 8)  // no width
	s.VideoRefresh(make([]byte, 64), 4, -1, 8) // negative height

	assert.Zero(t, delivered)
	assert.Equal(t, 4, logs.FilterMessage("dropping malformed frame").Len())

	// Malformed frames do not fix the pixel format
	assert.True(t, s.SetPixelFormat(emucore.PixelFormatXRGB8888))
}

func TestVideoRefresh_ReusesFrame(t *testing.T) {
	var frames []*Frame
	var bases []*byte
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{
		Video: func(f *Frame) {
			frames = append(frames, f)
			bases = append(bases, &f.Pix[0])
		},
	}})

	s.VideoRefresh(make([]byte, 8*8*2), 8, 8, 16)
	s.VideoRefresh(make([]byte, 8*8*2), 8, 8, 16)
	s.VideoRefresh(make([]byte, 4*4*2), 4, 4, 8)

	require.Len(t, frames, 3)
	assert.Same(t, frames[0], frames[1], "same geometry reuses the frame")
	assert.NotSame(t, frames[1], frames[2])
	assert.Same(t, bases[0], bases[2], "smaller frame reuses pixel storage")
	assert.Equal(t, 4, frames[2].Width)
}

func TestBufferCache(t *testing.T) {
	var c BufferCache
	a := c.Get(16)
	assert.Len(t, a, 16)
	assert.Equal(t, 16, c.Cap())

	b := c.Get(8)
	assert.Len(t, b, 8)
	assert.Same(t, &a[0], &b[0])

	d := c.Get(32)
	assert.Len(t, d, 32)
	assert.Equal(t, 32, c.Cap())
	assert.NotSame(t, &a[0], &d[0])

	assert.Empty(t, c.Get(-1))
}

func TestFrame_Decode(t *testing.T) {
	tests := []struct {
		name   string
		format emucore.PixelFormat
		pix    []byte
		want   color.RGBA
	}{
		{"xrgb8888", emucore.PixelFormatXRGB8888, []byte{0x30, 0x20, 0x10, 0x00}, color.RGBA{0x10, 0x20, 0x30, 0xFF}},
		{"rgb565 red", emucore.PixelFormatRGB565, []byte{0x00, 0xF8}, color.RGBA{0xFF, 0, 0, 0xFF}},
		{"rgb565 green", emucore.PixelFormatRGB565, []byte{0xE0, 0x07}, color.RGBA{0, 0xFF, 0, 0xFF}},
		{"rgb565 blue", emucore.PixelFormatRGB565, []byte{0x1F, 0x00}, color.RGBA{0, 0, 0xFF, 0xFF}},
		{"0rgb1555 red", emucore.PixelFormat0RGB1555, []byte{0x00, 0x7C}, color.RGBA{0xFF, 0, 0, 0xFF}},
		{"0rgb1555 green", emucore.PixelFormat0RGB1555, []byte{0xE0, 0x03}, color.RGBA{0, 0xFF, 0, 0xFF}},
		{"0rgb1555 white", emucore.PixelFormat0RGB1555, []byte{0xFF, 0x7F}, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Frame{Pix: tt.pix, Width: 1, Height: 1, Stride: len(tt.pix), Format: tt.format}
			assert.Equal(t, tt.want, f.RGBAAt(0, 0))
			assert.Equal(t, tt.want, f.At(0, 0))
			assert.Equal(t, []byte{tt.want.R, tt.want.G, tt.want.B, 0xFF}, f.ToRGBA(nil))
		})
	}
}

func TestFrame_ImageBounds(t *testing.T) {
	f := &Frame{Pix: make([]byte, 2*3*2), Width: 2, Height: 3, Stride: 4, Format: emucore.PixelFormatRGB565}
	assert.Equal(t, 2, f.Bounds().Dx())
	assert.Equal(t, 3, f.Bounds().Dy())
	assert.Equal(t, color.RGBA{}, f.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{}, f.RGBAAt(0, -1))

	dst := make([]byte, 0, 64)
	out := f.ToRGBA(dst)
	assert.Len(t, out, 2*3*4)
	assert.Same(t, &dst[:1][0], &out[0], "large enough dst is reused")
}
