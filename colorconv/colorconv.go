package colorconv

import (
	"math"

	"golang.org/x/image/math/f64"
)

// This package holds the color science primitives used by the converter: the
// fixed CIE XYZ (D65) to linear sRGB primary matrix, Bradford chromatic
// adaptation for XYZ data relative to other white points and the sRGB
// companding (gamma) function.
//
// Matrices are f64.Mat3 values in row-major order, so element (i, j) is
// m[3*i+j].

type Vec3 = f64.Vec3
type Mat3 = f64.Mat3

// LuminanceChannel is the index of Y in an XYZ triple.
const LuminanceChannel = 1

// Standard reference whites (CIE XYZ) normalized so Y = 1.0
// Note that WhiteD50 uses Z value from ICC spec rather that CIE spec.
var (
	WhiteD50 = Vec3{0.96422, 1.00000, 0.82491}
	WhiteD65 = Vec3{0.95047, 1.00000, 1.08883}
)

// Bradford transform matrices (forward and inverse)
var (
	bradford = Mat3{
		0.8951, 0.2664, -0.1614,
		-0.7502, 1.7135, 0.0367,
		0.0389, -0.0685, 1.0296,
	}
	invBradford = Mat3{
		0.9869929, -0.1470543, 0.1599627,
		0.4323053, 0.5183603, 0.0492912,
		-0.0085287, 0.0400428, 0.9684867,
	}
)

// SRGBFromXYZ is the linear sRGB primary transform from CIE XYZ (D65).
var SRGBFromXYZ = Mat3{
	3.2406, -1.5372, -0.4986,
	-0.9689, 1.8758, 0.0415,
	0.0557, -0.2040, 1.0570,
}

// PrimaryMatrix returns the matrix taking XYZ relative to sourceWhite to
// linear sRGB primaries. For D65 input this is SRGBFromXYZ itself, otherwise
// a Bradford adaptation to D65 is fused in so that a single multiply is
// needed per pixel.
func PrimaryMatrix(sourceWhite Vec3) Mat3 {
	if sourceWhite == WhiteD65 {
		return SRGBFromXYZ
	}
	return MulMat3(SRGBFromXYZ, ChromaticAdaptationMatrix(sourceWhite, WhiteD65))
}

// XYZToLinearRGB converts a single D65 XYZ triple to linear sRGB. The output
// may be outside [0,1].
func XYZToLinearRGB(X, Y, Z float64) (r, g, b float64) {
	return MulMat3Vec(SRGBFromXYZ, Vec3{X, Y, Z})
}

// XYZToSRGB converts a single D65 XYZ triple to gamma encoded sRGB, clamped
// to [0,1].
func XYZToSRGB(X, Y, Z float64) (r, g, b float64) {
	rl, gl, bl := XYZToLinearRGB(X, Y, Z)
	r = Clamp01(LinearToSRGB(rl))
	g = Clamp01(LinearToSRGB(gl))
	b = Clamp01(LinearToSRGB(bl))
	return
}

// LinearToSRGB applies the sRGB companding function to a linear component.
// Values above 1 are companded but not clamped.
func LinearToSRGB(c float64) float64 {
	// clip negative values and rounding noise
	if c <= 0 {
		return 0.0
	}
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

// Clamp01 clamps x to [0,1], mapping NaN to 0.
func Clamp01(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	return min(x, 1)
}

// Matrix & vector utilities

func MulMat3(a, b Mat3) Mat3 {
	var out Mat3
	for i := range 3 {
		for j := range 3 {
			sum := 0.0
			for k := range 3 {
				sum += a[3*i+k] * b[3*k+j]
			}
			out[3*i+j] = sum
		}
	}
	return out
}

func MulMat3Vec(m Mat3, v Vec3) (x, y, z float64) {
	x = m[0]*v[0] + m[1]*v[1] + m[2]*v[2]
	y = m[3]*v[0] + m[4]*v[1] + m[5]*v[2]
	z = m[6]*v[0] + m[7]*v[1] + m[8]*v[2]
	return
}

// ChromaticAdaptationMatrix constructs a 3x3 matrix that adapts XYZ values
// from sourceWhite to targetWhite using the Bradford method.
func ChromaticAdaptationMatrix(sourceWhite, targetWhite Vec3) Mat3 {
	srcL, srcM, srcS := MulMat3Vec(bradford, sourceWhite)
	tgtL, tgtM, tgtS := MulMat3Vec(bradford, targetWhite)
	diag := Mat3{
		tgtL / srcL, 0, 0,
		0, tgtM / srcM, 0,
		0, 0, tgtS / srcS,
	}
	// adapt = invBradford * diag * bradford
	return MulMat3(invBradford, MulMat3(diag, bradford))
}

// ValidWhite reports whether w can serve as a reference white: all
// components finite and positive.
func ValidWhite(w Vec3) bool {
	for _, v := range w {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
