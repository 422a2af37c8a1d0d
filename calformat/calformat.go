// Package calformat implements the calibration format: pixel data of a
// [height, width, 3] image laid out as a [3, height*width] matrix so that
// color transforms become row operations and 3x3 matrix multiplies.
package calformat

import (
	"fmt"
	"image"
	"math"

	"github.com/hdrkit/xyzsrgb/float3"
	"github.com/hdrkit/xyzsrgb/types"
	"github.com/kovidgoyal/go-parallel"
	"golang.org/x/image/math/f64"
)

var _ = fmt.Print

// Matrix holds one row per channel. Column i is the i-th pixel in row-major
// order.
type Matrix struct {
	Rows [3][]float64
}

func New(num_pixels int) Matrix {
	backing := make([]float64, 3*num_pixels)
	return Matrix{Rows: [3][]float64{
		backing[:num_pixels:num_pixels],
		backing[num_pixels : 2*num_pixels : 2*num_pixels],
		backing[2*num_pixels:],
	}}
}

func (m Matrix) Len() int { return len(m.Rows[0]) }

// Column returns the three channels of pixel i.
func (m Matrix) Column(i int) [3]float64 {
	return [3]float64{m.Rows[0][i], m.Rows[1][i], m.Rows[2][i]}
}

// FromImage reshapes img into calibration format, returning the width and
// height needed by ToImage to reverse the operation.
func FromImage(img *float3.Image) (m Matrix, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	m = New(width * height)
	if width == 0 {
		return
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for range width {
			s := row[0:3:3]
			m.Rows[0][i], m.Rows[1][i], m.Rows[2][i] = s[0], s[1], s[2]
			row = row[3:]
			i++
		}
	}
	return
}

// ToImage is the inverse of FromImage. The returned image has its origin at
// (0, 0).
func ToImage(m Matrix, width, height int) (*float3.Image, error) {
	if width < 0 || height < 0 || width*height != m.Len() {
		return nil, types.InvalidArgument("cannot reshape %d pixels into %dx%d", m.Len(), width, height)
	}
	img := float3.New(image.Rect(0, 0, width, height))
	p := img.Pix
	for i := range m.Len() {
		s := p[3*i : 3*i+3 : 3*i+3]
		s[0], s[1], s[2] = m.Rows[0][i], m.Rows[1][i], m.Rows[2][i]
	}
	return img, nil
}

// ForEach runs f over the pixel index range [0, m.Len()) split across
// workers goroutines (0 means one per CPU). f must only touch the pixels in
// the range it is given.
func (m Matrix) ForEach(workers int, f func(start, limit int)) error {
	if m.Len() == 0 {
		return nil
	}
	if workers == 1 {
		f(0, m.Len())
		return nil
	}
	return parallel.Run_in_parallel_over_range(workers, f, 0, m.Len())
}

// Transform returns t × m as a new matrix.
func (m Matrix) Transform(t f64.Mat3, workers int) (Matrix, error) {
	ans := New(m.Len())
	a, b, c := m.Rows[0], m.Rows[1], m.Rows[2]
	o0, o1, o2 := ans.Rows[0], ans.Rows[1], ans.Rows[2]
	err := m.ForEach(workers, func(start, limit int) {
		for i := start; i < limit; i++ {
			x, y, z := a[i], b[i], c[i]
			o0[i] = t[0]*x + t[1]*y + t[2]*z
			o1[i] = t[3]*x + t[4]*y + t[5]*z
			o2[i] = t[6]*x + t[7]*y + t[8]*z
		}
	})
	return ans, err
}

// Scale multiplies every element of m by s in place.
func (m Matrix) Scale(s float64, workers int) error {
	return m.ForEach(workers, func(start, limit int) {
		for _, r := range m.Rows {
			r = r[start:limit]
			for i := range r {
				r[i] *= s
			}
		}
	})
}

// Max returns the largest finite element of m, or -Inf when there is none.
// NaN and infinite values, such as those produced by overflow in Transform,
// are skipped.
func (m Matrix) Max() float64 {
	ans := math.Inf(-1)
	for _, r := range m.Rows {
		for _, v := range r {
			if v > ans && !math.IsInf(v, 1) {
				ans = v
			}
		}
	}
	return ans
}

// Mean returns the arithmetic mean of channel c, or 0 for an empty matrix.
func (m Matrix) Mean(c int) float64 {
	r := m.Rows[c]
	if len(r) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range r {
		sum += v
	}
	return sum / float64(len(r))
}
