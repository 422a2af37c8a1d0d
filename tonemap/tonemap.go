// Package tonemap clamps the luminance of XYZ pixel data held in
// calibration format.
package tonemap

import (
	"fmt"
	"math"

	"github.com/hdrkit/xyzsrgb/calformat"
	"github.com/hdrkit/xyzsrgb/colorconv"
	"github.com/hdrkit/xyzsrgb/types"
)

var _ = fmt.Print

type Kind = types.ToneMapKind

const (
	NONE      = types.NO_TONE_MAP
	THRESHOLD = types.THRESHOLD_TONE_MAP
	FACTOR    = types.FACTOR_TONE_MAP
)

// Policy selects how the luminance ceiling is chosen. The zero value
// performs no tone mapping.
type Policy struct {
	Kind  Kind
	Value float64
}

func None() Policy { return Policy{} }

// Threshold clamps luminance to the absolute ceiling t.
func Threshold(t float64) Policy { return Policy{Kind: THRESHOLD, Value: t} }

// Factor clamps luminance to f times the mean luminance of the image.
func Factor(f float64) Policy { return Policy{Kind: FACTOR, Value: f} }

func (p Policy) String() string {
	if p.Kind == NONE {
		return p.Kind.String()
	}
	return fmt.Sprintf("%s(%g)", p.Kind, p.Value)
}

func (p Policy) Validate() error {
	switch p.Kind {
	case NONE:
		return nil
	case THRESHOLD, FACTOR:
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || p.Value <= 0 {
			return types.InvalidArgument("tone map %s value must be a finite number > 0, got %v", p.Kind, p.Value)
		}
		return nil
	}
	return types.InvalidArgument("unknown tone map policy: %s", p.Kind)
}

// Ceiling returns the luminance ceiling p implies for the XYZ data in m.
// ok is false when no clamping should happen.
func (p Policy) Ceiling(m calformat.Matrix) (ceiling float64, ok bool) {
	switch p.Kind {
	case THRESHOLD:
		ceiling = p.Value
	case FACTOR:
		ceiling = p.Value * m.Mean(colorconv.LuminanceChannel)
	default:
		return 0, false
	}
	return ceiling, ceiling > 0
}

// Clamp scales, in place, every pixel whose luminance exceeds ceiling by
// ceiling/Y so that its luminance becomes exactly ceiling. X and Z are
// scaled by the same factor which preserves chromaticity. Returns the
// number of pixels that were changed.
func Clamp(m calformat.Matrix, ceiling float64, workers int) (int, error) {
	xs, ys, zs := m.Rows[0], m.Rows[1], m.Rows[2]
	clamped := make([]bool, m.Len())
	err := m.ForEach(workers, func(start, limit int) {
		for i := start; i < limit; i++ {
			if y := ys[i]; y > ceiling {
				f := ceiling / y
				xs[i] *= f
				zs[i] *= f
				ys[i] = ceiling
				clamped[i] = true
			}
		}
	})
	n := 0
	for _, c := range clamped {
		if c {
			n++
		}
	}
	return n, err
}
