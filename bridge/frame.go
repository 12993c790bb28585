package bridge

import (
	"encoding/binary"
	"image"
	"image/color"

	emucore "github.com/user-none/retrohost/api"
)

// Frame is a tightly packed video frame in the core's pixel format.
// Frames handed to the frontend are reused: a Frame is only valid until the
// next video callback unless the frontend copies it.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int // Width * bytes per pixel
	Format emucore.PixelFormat
}

var _ image.Image = (*Frame)(nil)

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color { return f.RGBAAt(x, y) }

// RGBAAt decodes the pixel at x, y. Out of range pixels are transparent.
func (f *Frame) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(f.Bounds())) {
		return color.RGBA{}
	}
	i := y*f.Stride + x*f.Format.BytesPerPixel()
	switch f.Format {
	case emucore.PixelFormatXRGB8888:
		return decodeXRGB8888(f.Pix[i:])
	case emucore.PixelFormatRGB565:
		return decodeRGB565(binary.LittleEndian.Uint16(f.Pix[i:]))
	case emucore.PixelFormat0RGB1555:
		return decode0RGB1555(binary.LittleEndian.Uint16(f.Pix[i:]))
	}
	return color.RGBA{}
}

// ToRGBA converts the frame into 8-bit RGBA pixels, reusing dst when it is
// large enough. The returned slice has Width*Height*4 bytes.
func (f *Frame) ToRGBA(dst []byte) []byte {
	n := f.Width * f.Height * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	bpp := f.Format.BytesPerPixel()
	o := 0
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride : y*f.Stride+f.Width*bpp]
		for x := 0; x < f.Width; x++ {
			var c color.RGBA
			switch f.Format {
			case emucore.PixelFormatXRGB8888:
				c = decodeXRGB8888(row[x*4:])
			case emucore.PixelFormatRGB565:
				c = decodeRGB565(binary.LittleEndian.Uint16(row[x*2:]))
			default:
				c = decode0RGB1555(binary.LittleEndian.Uint16(row[x*2:]))
			}
			dst[o+0] = c.R
			dst[o+1] = c.G
			dst[o+2] = c.B
			dst[o+3] = 0xFF
			o += 4
		}
	}
	return dst
}

// decodeXRGB8888 reads a little-endian XRGB8888 pixel (B, G, R, X in memory).
func decodeXRGB8888(p []byte) color.RGBA {
	return color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xFF}
}

func decodeRGB565(v uint16) color.RGBA {
	r := uint8(v>>11) & 0x1F
	g := uint8(v>>5) & 0x3F
	b := uint8(v) & 0x1F
	return color.RGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 0xFF}
}

func decode0RGB1555(v uint16) color.RGBA {
	r := uint8(v>>10) & 0x1F
	g := uint8(v>>5) & 0x1F
	b := uint8(v) & 0x1F
	return color.RGBA{R: r<<3 | r>>2, G: g<<3 | g>>2, B: b<<3 | b>>2, A: 0xFF}
}

// FrameCache keeps the Frame handed to the frontend. The Frame is only
// recreated when the dimensions or pixel format change; its pixel storage
// comes from a BufferCache so a smaller frame reuses the old memory.
type FrameCache struct {
	buffers BufferCache
	frame   *Frame
}

// Get returns a frame for the given size and format.
func (c *FrameCache) Get(width, height int, format emucore.PixelFormat) *Frame {
	if f := c.frame; f != nil && f.Width == width && f.Height == height && f.Format == format {
		return f
	}
	stride := width * format.BytesPerPixel()
	c.frame = &Frame{
		Pix:    c.buffers.Get(stride * height),
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
	}
	return c.frame
}

// Invalidate drops the cached frame so the next Get rebuilds it.
func (c *FrameCache) Invalidate() {
	c.frame = nil
}

// Repack copies height rows of rowBytes each from src, whose rows start
// pitch bytes apart, into dst with the row padding removed.
func Repack(dst, src []byte, rowBytes, height, pitch int) {
	if pitch == rowBytes {
		copy(dst[:rowBytes*height], src[:rowBytes*height])
		return
	}
	for y := 0; y < height; y++ {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*pitch:y*pitch+rowBytes])
	}
}
