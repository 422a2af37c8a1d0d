package types

import (
	"errors"
	"fmt"
)

var _ = fmt.Print

// ErrInvalidArgument is returned, wrapped with a description of the violated
// constraint, whenever an image or a conversion parameter is malformed.
var ErrInvalidArgument = errors.New("xyzsrgb: invalid argument")

// ToneMapKind selects how the luminance ceiling is computed.
type ToneMapKind int

const (
	NO_TONE_MAP ToneMapKind = iota
	THRESHOLD_TONE_MAP
	FACTOR_TONE_MAP
)

var toneMapNames = map[ToneMapKind]string{
	NO_TONE_MAP:        "None",
	THRESHOLD_TONE_MAP: "Threshold",
	FACTOR_TONE_MAP:    "Factor",
}

func (k ToneMapKind) String() string {
	if n, ok := toneMapNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ToneMapKind(%d)", int(k))
}

// ScaleKind selects how linear primaries are scaled before gamma encoding.
type ScaleKind int

const (
	NO_SCALE ScaleKind = iota
	EXPLICIT_SCALE
	AUTO_NORMALIZE_SCALE
)

var scaleNames = map[ScaleKind]string{
	NO_SCALE:             "None",
	EXPLICIT_SCALE:       "Explicit",
	AUTO_NORMALIZE_SCALE: "AutoNormalize",
}

func (k ScaleKind) String() string {
	if n, ok := scaleNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ScaleKind(%d)", int(k))
}

// InvalidArgument wraps ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
