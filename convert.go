package xyzsrgb

import (
	"fmt"
	"image"
	"math"

	"github.com/hdrkit/xyzsrgb/calformat"
	"github.com/hdrkit/xyzsrgb/colorconv"
	"github.com/hdrkit/xyzsrgb/float3"
	"github.com/hdrkit/xyzsrgb/gamma"
	"github.com/hdrkit/xyzsrgb/tonemap"
	"github.com/hdrkit/xyzsrgb/types"
)

var _ = fmt.Print

// ErrInvalidArgument means an image or conversion parameter was malformed.
// Errors returned by Convert wrap it, test with errors.Is.
var ErrInvalidArgument = types.ErrInvalidArgument

type Result struct {
	// Gamma is the gamma encoded sRGB image, values in [0,1]
	Gamma *float3.Image
	// Raw holds the linear sRGB primaries before gamma encoding. It includes
	// an explicit scale factor but never automatic normalization.
	Raw *float3.Image
	// ScaleFactor is the explicit scale for Explicit policies, otherwise
	// 1/max(Raw), which is only applied to Gamma when normalization was
	// requested. It is 0 when max(Raw) <= 0.
	ScaleFactor float64
	// The policies that were actually used
	ToneMap tonemap.Policy
	Scale   ScalePolicy
	// Ceiling is the luminance ceiling used for tone mapping, 0 if none
	Ceiling float64
	// Warnings lists parameters that were ignored or could not be applied
	Warnings []string
}

// NRGBA returns the gamma encoded image quantized to 8 bits per channel.
func (r *Result) NRGBA() *image.NRGBA {
	return r.Gamma.ToNRGBA()
}

// Convert converts img, whose channels are CIE XYZ, into sRGB. img is not
// modified. With no options no tone mapping or scaling is performed.
//
// Examples:
//
//	// Clamp luminance to four times the mean and normalize to the brightest primary
//	res, err := xyzsrgb.Convert(img, xyzsrgb.WithToneMap(tonemap.Factor(4)), xyzsrgb.WithScale(xyzsrgb.AutoNormalize(true)))
//
//	// The same using the flat parameter form
//	res, err := xyzsrgb.Convert(img, xyzsrgb.WithParams(xyzsrgb.Params{ToneMapFactor: 4, IsScale: true}))
func Convert(img *float3.Image, opts ...Option) (ans *Result, err error) {
	cfg := defaultConvertConfig()
	for _, option := range opts {
		option(&cfg)
	}
	warnings, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	if err = img.Validate(); err != nil {
		return nil, err
	}
	if err = img.CheckFinite(); err != nil {
		return nil, err
	}
	ans = &Result{ToneMap: cfg.toneMap, Scale: cfg.scale}
	clog := conversionLog{log: cfg.logger, ans: ans}
	for _, w := range warnings {
		clog.warn("%s", w)
	}

	xyz, width, height := calformat.FromImage(img)

	num_clamped := 0
	if ceiling, ok := cfg.toneMap.Ceiling(xyz); ok {
		ans.Ceiling = ceiling
		if num_clamped, err = tonemap.Clamp(xyz, ceiling, cfg.workers); err != nil {
			return nil, err
		}
	} else if cfg.toneMap.Kind != tonemap.NONE {
		clog.warn("tone mapping with %s skipped as the luminance ceiling %g is not positive", cfg.toneMap, ceiling)
	}

	raw, err := xyz.Transform(colorconv.PrimaryMatrix(cfg.sourceWhite), cfg.workers)
	if err != nil {
		return nil, err
	}

	normalize := false
	switch cfg.scale.Kind {
	case EXPLICIT_SCALE:
		ans.ScaleFactor = cfg.scale.Factor
		if err = raw.Scale(ans.ScaleFactor, cfg.workers); err != nil {
			return nil, err
		}
	default:
		if mx := raw.Max(); mx > 0 && !math.IsInf(mx, 1) {
			ans.ScaleFactor = 1 / mx
			normalize = cfg.scale.normalize()
		} else if cfg.scale.normalize() {
			clog.warn("normalization skipped as the maximum linear primary %g is not positive", mx)
		}
	}

	encoded, _, err := gamma.Encode(raw, normalize, cfg.workers)
	if err != nil {
		return nil, err
	}
	if ans.Raw, err = calformat.ToImage(raw, width, height); err != nil {
		return nil, err
	}
	if ans.Gamma, err = calformat.ToImage(encoded, width, height); err != nil {
		return nil, err
	}
	clog.done(num_clamped)
	return ans, nil
}

// ConvertParams is Convert using the flat four parameter form.
func ConvertParams(img *float3.Image, p Params, opts ...Option) (*Result, error) {
	return Convert(img, append([]Option{WithParams(p)}, opts...)...)
}
