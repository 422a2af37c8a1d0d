// Package gamma encodes linear sRGB primaries with the sRGB transfer
// function.
package gamma

import (
	"math"

	"github.com/hdrkit/xyzsrgb/calformat"
	"github.com/hdrkit/xyzsrgb/colorconv"
)

// Encode returns the gamma encoded version of the linear primaries in m,
// clipped to [0,1]. m is not modified. When normalize is true the primaries
// are first divided by their maximum; if that maximum is not a positive
// finite number normalization is skipped and normalized is false.
func Encode(m calformat.Matrix, normalize bool, workers int) (ans calformat.Matrix, normalized bool, err error) {
	s := 1.0
	if normalize {
		if mx := m.Max(); mx > 0 && !math.IsInf(mx, 1) {
			s, normalized = 1/mx, true
		}
	}
	ans = calformat.New(m.Len())
	err = m.ForEach(workers, func(start, limit int) {
		for c, src := range m.Rows {
			dest := ans.Rows[c][start:limit]
			for i, v := range src[start:limit] {
				dest[i] = colorconv.Clamp01(colorconv.LinearToSRGB(v * s))
			}
		}
	})
	return
}
