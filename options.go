package xyzsrgb

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/hdrkit/xyzsrgb/colorconv"
	"github.com/hdrkit/xyzsrgb/tonemap"
	"github.com/hdrkit/xyzsrgb/types"
)

type ScaleKind = types.ScaleKind

const (
	NO_SCALE             = types.NO_SCALE
	EXPLICIT_SCALE       = types.EXPLICIT_SCALE
	AUTO_NORMALIZE_SCALE = types.AUTO_NORMALIZE_SCALE
)

// ScalePolicy selects how linear primaries are scaled before gamma encoding.
// The zero value behaves as AutoNormalize(false): the scale factor is
// computed and reported but not applied.
type ScalePolicy struct {
	Kind ScaleKind
	// Factor is the multiplier for EXPLICIT_SCALE
	Factor float64
	// Normalize asks the gamma encoder to divide by the maximum primary, for
	// AUTO_NORMALIZE_SCALE
	Normalize bool
}

func NoScale() ScalePolicy { return ScalePolicy{} }

// Explicit multiplies all linear primaries by s before encoding.
func Explicit(s float64) ScalePolicy { return ScalePolicy{Kind: EXPLICIT_SCALE, Factor: s} }

// AutoNormalize computes 1/max(primaries) and, if normalize is true, has
// the gamma encoder apply it.
func AutoNormalize(normalize bool) ScalePolicy {
	return ScalePolicy{Kind: AUTO_NORMALIZE_SCALE, Normalize: normalize}
}

func (p ScalePolicy) String() string {
	switch p.Kind {
	case EXPLICIT_SCALE:
		return fmt.Sprintf("%s(%g)", p.Kind, p.Factor)
	case AUTO_NORMALIZE_SCALE:
		return fmt.Sprintf("%s(%v)", p.Kind, p.Normalize)
	}
	return p.Kind.String()
}

func (p ScalePolicy) Validate() error {
	switch p.Kind {
	case NO_SCALE, AUTO_NORMALIZE_SCALE:
		return nil
	case EXPLICIT_SCALE:
		if math.IsNaN(p.Factor) || math.IsInf(p.Factor, 0) || p.Factor <= 0 {
			return types.InvalidArgument("explicit scale factor must be a finite number > 0, got %v", p.Factor)
		}
		return nil
	}
	return types.InvalidArgument("unknown scale policy: %s", p.Kind)
}

func (p ScalePolicy) normalize() bool { return p.Kind == AUTO_NORMALIZE_SCALE && p.Normalize }

// Params is the flat four parameter form of the conversion settings. Zero
// means unset for the numeric fields. When more than one member of a
// mutually exclusive pair is set the first takes precedence:
// ToneMapThreshold over ToneMapFactor and ScaleFactor over IsScale.
type Params struct {
	ToneMapThreshold float64
	ToneMapFactor    float64
	ScaleFactor      float64
	IsScale          bool
}

func check_param(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.InvalidArgument("%s must be a finite number, got %v", name, v)
	}
	if v < 0 {
		return types.InvalidArgument("%s must be >= 0, got %v", name, v)
	}
	return nil
}

func (p Params) Validate() error {
	if err := check_param("toneMapThreshold", p.ToneMapThreshold); err != nil {
		return err
	}
	if err := check_param("toneMapFactor", p.ToneMapFactor); err != nil {
		return err
	}
	return check_param("scaleFactor", p.ScaleFactor)
}

// Resolve turns p into explicit policies. warnings describes every set
// parameter that was ignored because of precedence.
func (p Params) Resolve() (tm tonemap.Policy, sc ScalePolicy, warnings []string) {
	tm, tw := p.toneMap()
	sc, sw := p.scale()
	for _, w := range []string{tw, sw} {
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	return
}

func (p Params) toneMap() (tonemap.Policy, string) {
	switch {
	case p.ToneMapThreshold > 0:
		if p.ToneMapFactor > 0 {
			return tonemap.Threshold(p.ToneMapThreshold), fmt.Sprintf("toneMapFactor=%g ignored because toneMapThreshold=%g is set", p.ToneMapFactor, p.ToneMapThreshold)
		}
		return tonemap.Threshold(p.ToneMapThreshold), ""
	case p.ToneMapFactor > 0:
		return tonemap.Factor(p.ToneMapFactor), ""
	}
	return tonemap.None(), ""
}

func (p Params) scale() (ScalePolicy, string) {
	if p.ScaleFactor > 0 {
		if p.IsScale {
			return Explicit(p.ScaleFactor), fmt.Sprintf("isScale ignored because scaleFactor=%g is set", p.ScaleFactor)
		}
		return Explicit(p.ScaleFactor), ""
	}
	return AutoNormalize(p.IsScale), ""
}

type convertConfig struct {
	toneMap     tonemap.Policy
	scale       ScalePolicy
	sourceWhite colorconv.Vec3
	workers     int
	logger      *slog.Logger
	params      *Params
	// whether toneMap and scale still come from params
	toneMapFromParams, scaleFromParams bool
}

func defaultConvertConfig() convertConfig {
	return convertConfig{sourceWhite: colorconv.WhiteD65}
}

// Option sets an optional parameter for Convert.
type Option func(*convertConfig)

// WithToneMap sets the tone mapping policy. Default is tonemap.None().
func WithToneMap(p tonemap.Policy) Option {
	return func(c *convertConfig) {
		c.toneMap = p
		c.toneMapFromParams = false
	}
}

// WithScale sets the scaling policy. Default is NoScale().
func WithScale(p ScalePolicy) Option {
	return func(c *convertConfig) {
		c.scale = p
		c.scaleFromParams = false
	}
}

// WithParams sets both policies from the flat four parameter form. Options
// are applied in order so a later WithToneMap or WithScale overrides the
// corresponding part of p.
func WithParams(p Params) Option {
	return func(c *convertConfig) {
		c.params = &p
		c.toneMap, _ = p.toneMap()
		c.scale, _ = p.scale()
		c.toneMapFromParams, c.scaleFromParams = true, true
	}
}

// WithSourceWhite declares the reference white the input XYZ data is
// relative to. Data relative to anything other than D65 is chromatically
// adapted with the Bradford method. Default is colorconv.WhiteD65.
func WithSourceWhite(w colorconv.Vec3) Option {
	return func(c *convertConfig) {
		c.sourceWhite = w
	}
}

// WithWorkers sets how many goroutines per pixel operations are split
// across. 0, the default, uses one per CPU; 1 runs everything on the
// calling goroutine.
func WithWorkers(n int) Option {
	return func(c *convertConfig) {
		c.workers = n
	}
}

// WithLogger overrides the package logger for a single conversion.
func WithLogger(l *slog.Logger) Option {
	return func(c *convertConfig) {
		c.logger = l
	}
}

// resolve validates the configuration, returning the precedence warnings
// for the parts of WithParams that were not overridden by later options.
func (c *convertConfig) resolve() (warnings []string, err error) {
	if c.params != nil {
		if err = c.params.Validate(); err != nil {
			return
		}
		if _, w := c.params.toneMap(); w != "" && c.toneMapFromParams {
			warnings = append(warnings, w)
		}
		if _, w := c.params.scale(); w != "" && c.scaleFromParams {
			warnings = append(warnings, w)
		}
	}
	if err = c.toneMap.Validate(); err != nil {
		return
	}
	if err = c.scale.Validate(); err != nil {
		return
	}
	if !colorconv.ValidWhite(c.sourceWhite) {
		return nil, types.InvalidArgument("source white must have finite components > 0, got %v", c.sourceWhite)
	}
	if c.workers < 0 {
		return nil, types.InvalidArgument("number of workers must be >= 0, got %d", c.workers)
	}
	if c.logger == nil {
		c.logger = Logger()
	}
	return
}
