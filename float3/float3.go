package float3

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hdrkit/xyzsrgb/types"
	"golang.org/x/exp/constraints"
)

var _ = fmt.Print

// Number is any pixel component type accepted by the generic constructors.
type Number interface {
	constraints.Integer | constraints.Float
}

// Color is a single three channel floating point pixel. The channels are
// X, Y, Z for images in XYZ space and R, G, B for images in sRGB space.
type Color struct {
	C0, C1, C2 float64
}

func (c Color) String() string {
	return fmt.Sprintf("float3.Color{%g %g %g}", c.C0, c.C1, c.C2)
}

func to16(v float64) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 0xffff
	}
	return uint32(v*0xffff + 0.5)
}

// RGBA interprets the channels as encoded RGB in [0,1], clamping values
// outside that range. The color is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return to16(c.C0), to16(c.C1), to16(c.C2), 0xffff
}

func model(c color.Color) color.Color {
	if _, ok := c.(Color); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Color{}
	}
	// Color.RGBA is alpha-premultiplied so r <= a && g <= a && b <= a.
	f := float64(a)
	return Color{float64(r) / f, float64(g) / f, float64(b) / f}
}

var Model color.Model = color.ModelFunc(model)

// Image is an in-memory three channel float64 image of shape [height, width, 3].
type Image struct {
	// Pix holds the image's pixels in channel order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []float64
	// Stride is the Pix stride (in elements) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

func (p *Image) ColorModel() color.Model { return Model }

func (p *Image) Bounds() image.Rectangle { return p.Rect }

func (p *Image) Width() int  { return p.Rect.Dx() }
func (p *Image) Height() int { return p.Rect.Dy() }

func (p *Image) At(x, y int) color.Color {
	v := p.PixelAt(x, y)
	return Color{v[0], v[1], v[2]}
}

// PixelAt returns the three channels of the pixel at (x, y), or zeros when
// (x, y) is outside the image.
func (p *Image) PixelAt(x, y int) [3]float64 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return [3]float64{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return [3]float64{s[0], s[1], s[2]}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *Image) SetPixel(x, y int, v [3]float64) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = v[0], v[1], v[2]
}

func (p *Image) Set(x, y int, c color.Color) {
	c1 := Model.Convert(c).(Color)
	p.SetPixel(x, y, [3]float64{c1.C0, c1.C1, c1.C2})
}

// SubImage returns an image representing the portion of the image p visible
// through r. The returned value shares pixels with the original image.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Opaque reports whether the image is fully opaque, which it always is.
func (p *Image) Opaque() bool { return true }

// Validate checks that Pix is large enough for Rect and Stride.
func (p *Image) Validate() error {
	if p == nil {
		return types.InvalidArgument("image is nil")
	}
	w, h := p.Rect.Dx(), p.Rect.Dy()
	if w < 0 || h < 0 {
		return types.InvalidArgument("image has negative dimensions %dx%d", w, h)
	}
	if p.Stride < 0 {
		return types.InvalidArgument("image has negative stride %d", p.Stride)
	}
	if w == 0 || h == 0 {
		return nil
	}
	if w > math.MaxInt/3 {
		return types.InvalidArgument("image width %d is too large", w)
	}
	if p.Stride < 3*w {
		return types.InvalidArgument("image stride %d is smaller than 3*width=%d", p.Stride, 3*w)
	}
	// (h-1)*Stride + 3*w <= len(Pix) without overflowing
	if avail := len(p.Pix) - 3*w; avail < 0 || h-1 > avail/p.Stride {
		return types.InvalidArgument("image of size %dx%d with stride %d does not fit in %d values", w, h, p.Stride, len(p.Pix))
	}
	return nil
}

// CheckFinite returns an error naming the first pixel that has a NaN or
// infinite channel.
func (p *Image) CheckFinite() error {
	if p.Rect.Dx() == 0 {
		return nil
	}
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		row := p.Pix[p.PixOffset(p.Rect.Min.X, y):]
		for x := range p.Rect.Dx() {
			for c, v := range row[3*x : 3*x+3] {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return types.InvalidArgument("pixel (%d, %d) channel %d is not a finite number: %v", x+p.Rect.Min.X, y, c, v)
				}
			}
		}
	}
	return nil
}

// Array returns a copy of the pixel data as a nested [height][width][3] array.
func (p *Image) Array() [][][3]float64 {
	w, h := p.Rect.Dx(), p.Rect.Dy()
	ans := make([][][3]float64, h)
	for y := range h {
		ans[y] = make([][3]float64, w)
		for x := range w {
			ans[y][x] = p.PixelAt(x+p.Rect.Min.X, y+p.Rect.Min.Y)
		}
	}
	return ans
}

// ToNRGBA quantizes an image holding encoded values in [0,1] to 8 bits
// per channel.
func (p *Image) ToNRGBA() *image.NRGBA {
	b := p.Rect
	ans := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if b.Dx() == 0 {
		return ans
	}
	q := func(v float64) uint8 {
		if !(v > 0) {
			return 0
		}
		if v >= 1 {
			return 0xff
		}
		return uint8(v*0xff + 0.5)
	}
	for y := range b.Dy() {
		row := p.Pix[p.PixOffset(b.Min.X, b.Min.Y+y):]
		drow := ans.Pix[ans.Stride*y:]
		for range b.Dx() {
			s := drow[0:4:4]
			s[0], s[1], s[2], s[3] = q(row[0]), q(row[1]), q(row[2]), 0xff
			row = row[3:]
			drow = drow[4:]
		}
	}
	return ans
}

func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]float64, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

// FromPixels creates an image from contiguous pixel data laid out as
// [height][width][3]. The data is converted to float64 and copied.
func FromPixels[T Number](p []T, width, height int) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, types.InvalidArgument("negative image dimensions: width=%d height=%d", width, height)
	}
	if width > 0 && height > math.MaxInt/3/width {
		return nil, types.InvalidArgument("image dimensions too large: width=%d height=%d", width, height)
	}
	if expected := 3 * width * height; expected != len(p) {
		return nil, types.InvalidArgument("the image width and height dont match the size of the specified pixel data: width=%d height=%d sz=%d != %d", width, height, len(p), expected)
	}
	ans := New(image.Rect(0, 0, width, height))
	for i, v := range p {
		ans.Pix[i] = float64(v)
	}
	return ans, nil
}

// FromArray creates an image from a nested [height][width][3] array. All
// rows must have the same width.
func FromArray[T Number](a [][][3]T) (*Image, error) {
	height, width := len(a), 0
	if height > 0 {
		width = len(a[0])
	}
	ans := New(image.Rect(0, 0, width, height))
	for y, row := range a {
		if len(row) != width {
			return nil, types.InvalidArgument("row %d has %d pixels, expected %d", y, len(row), width)
		}
		drow := ans.Pix[ans.Stride*y:]
		for x, px := range row {
			drow[3*x], drow[3*x+1], drow[3*x+2] = float64(px[0]), float64(px[1]), float64(px[2])
		}
	}
	return ans, nil
}
