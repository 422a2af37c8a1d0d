package xyzsrgb

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hdrkit/xyzsrgb/colorconv"
	"github.com/hdrkit/xyzsrgb/float3"
	"github.com/hdrkit/xyzsrgb/tonemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

var approx = cmpopts.EquateApprox(0, 1e-12)

func test_image(t *testing.T) *float3.Image {
	img, err := float3.FromArray([][][3]float64{
		{{0.2, 0.3, 0.1}, {0.9505, 1.0, 1.089}, {0, 0, 0}},
		{{0.5, 2.0, 0.25}, {0.05, 0.04, 0.3}, {4, 5, 6}},
	})
	require.NoError(t, err)
	return img
}

// linear transform of XYZ data, computed pixel by pixel
func expected_raw(img *float3.Image, scale float64) [][][3]float64 {
	ans := img.Array()
	for _, row := range ans {
		for x, px := range row {
			r, g, b := colorconv.XYZToLinearRGB(px[0], px[1], px[2])
			row[x] = [3]float64{r * scale, g * scale, b * scale}
		}
	}
	return ans
}

func max_of(a [][][3]float64) float64 {
	ans := math.Inf(-1)
	for _, row := range a {
		for _, px := range row {
			ans = max(ans, px[0], px[1], px[2])
		}
	}
	return ans
}

func TestConvertShapes(t *testing.T) {
	for _, sz := range []struct{ w, h int }{{1, 1}, {3, 2}, {2, 5}, {0, 0}, {7, 1}} {
		t.Run(fmt.Sprintf("%dx%d", sz.w, sz.h), func(t *testing.T) {
			pix := make([]uint16, 3*sz.w*sz.h)
			for i := range pix {
				pix[i] = uint16(i * 7 % 13)
			}
			img, err := float3.FromPixels(pix, sz.w, sz.h)
			require.NoError(t, err)
			res, err := Convert(img, WithParams(Params{ToneMapFactor: 1.5, IsScale: true}))
			require.NoError(t, err)
			for _, out := range []*float3.Image{res.Raw, res.Gamma} {
				assert.Equal(t, sz.w, out.Width())
				assert.Equal(t, sz.h, out.Height())
				assert.Len(t, out.Pix, 3*sz.w*sz.h)
			}
		})
	}
}

func TestConvertDefaults(t *testing.T) {
	img := test_image(t)
	orig := img.Array()
	res, err := Convert(img)
	require.NoError(t, err)
	// no tone mapping and no scaling, so raw is exactly the linear transform
	want := expected_raw(img, 1)
	if diff := cmp.Diff(want, res.Raw.Array(), approx); diff != "" {
		t.Fatalf("unexpected raw image (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1/max_of(want), res.ScaleFactor, 1e-12)
	assert.Equal(t, tonemap.None(), res.ToneMap)
	assert.Equal(t, AutoNormalize(false), res.Scale)
	assert.Zero(t, res.Ceiling)
	assert.Empty(t, res.Warnings)
	// the scale factor is informational only
	px := res.Gamma.PixelAt(0, 0)
	r, g, b := colorconv.XYZToSRGB(0.2, 0.3, 0.1)
	assert.InDeltaSlice(t, []float64{r, g, b}, px[:], 1e-12)
	// input is untouched
	require.Equal(t, orig, img.Array())
}

func TestConvertRawIndependentOfGammaSettings(t *testing.T) {
	img := test_image(t)
	base, err := Convert(img, WithToneMap(tonemap.Threshold(1)))
	require.NoError(t, err)
	for _, sc := range []ScalePolicy{NoScale(), AutoNormalize(true), AutoNormalize(false)} {
		res, err := Convert(img, WithToneMap(tonemap.Threshold(1)), WithScale(sc))
		require.NoError(t, err)
		if diff := cmp.Diff(base.Raw.Array(), res.Raw.Array()); diff != "" {
			t.Fatalf("raw image changed with %s (-want +got):\n%s", sc, diff)
		}
	}
}

func TestConvertExplicitScale(t *testing.T) {
	img := test_image(t)
	const S = 0.25
	res, err := Convert(img, WithScale(Explicit(S)))
	require.NoError(t, err)
	assert.Equal(t, S, res.ScaleFactor)
	if diff := cmp.Diff(expected_raw(img, S), res.Raw.Array(), approx); diff != "" {
		t.Fatalf("unexpected raw image (-want +got):\n%s", diff)
	}
	r, g, b := colorconv.XYZToLinearRGB(4, 5, 6)
	px := res.Gamma.PixelAt(2, 1)
	assert.InDeltaSlice(t, []float64{
		colorconv.Clamp01(colorconv.LinearToSRGB(r * S)),
		colorconv.Clamp01(colorconv.LinearToSRGB(g * S)),
		colorconv.Clamp01(colorconv.LinearToSRGB(b * S)),
	}, px[:], 1e-12)
}

func TestConvertAutoNormalize(t *testing.T) {
	img := test_image(t)
	res, err := Convert(img, WithScale(AutoNormalize(true)))
	require.NoError(t, err)
	want := expected_raw(img, 1)
	mx := max_of(want)
	assert.InDelta(t, 1/mx, res.ScaleFactor, 1e-12)
	if diff := cmp.Diff(want, res.Raw.Array(), approx); diff != "" {
		t.Fatalf("raw image must not be normalized (-want +got):\n%s", diff)
	}
	// the brightest primary encodes to exactly 1
	found := false
	for _, v := range res.Gamma.Pix {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if math.Abs(v-1) < 1e-12 {
			found = true
		}
	}
	assert.True(t, found)
	px := res.Gamma.PixelAt(0, 0)
	assert.InDelta(t, colorconv.LinearToSRGB(want[0][0][1]/mx), px[1], 1e-12)
}

func TestConvertThresholdToneMap(t *testing.T) {
	img := test_image(t)
	const T = 0.8
	res, err := Convert(img, WithToneMap(tonemap.Threshold(T)), WithScale(Explicit(2)))
	require.NoError(t, err)
	assert.Equal(t, T, res.Ceiling)
	// pixels above the ceiling are scaled to Y == T keeping chromaticity
	for y, row := range img.Array() {
		for x, px := range row {
			X, Y, Z := px[0], px[1], px[2]
			if Y > T {
				X, Y, Z = X*T/Y, T, Z*T/Y
			}
			r, g, b := colorconv.XYZToLinearRGB(X, Y, Z)
			got := res.Raw.PixelAt(x, y)
			assert.InDeltaSlice(t, []float64{2 * r, 2 * g, 2 * b}, got[:], 1e-12, "pixel (%d, %d)", x, y)
		}
	}
}

func TestConvertFactorToneMap(t *testing.T) {
	img := test_image(t)
	mean := 0.0
	for _, row := range img.Array() {
		for _, px := range row {
			mean += px[1]
		}
	}
	mean /= 6
	res, err := Convert(img, WithParams(Params{ToneMapFactor: 0.5}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5*mean, res.Ceiling, 1e-12)
	assert.Equal(t, tonemap.Factor(0.5), res.ToneMap)
}

func TestConvertZeroImage(t *testing.T) {
	img, err := float3.FromPixels(make([]float32, 12), 2, 2)
	require.NoError(t, err)
	for _, opts := range [][]Option{
		nil,
		{WithScale(AutoNormalize(true))},
		{WithToneMap(tonemap.Factor(2))},
	} {
		res, err := Convert(img, opts...)
		require.NoError(t, err)
		assert.Equal(t, make([]float64, 12), res.Raw.Pix)
		assert.Equal(t, make([]float64, 12), res.Gamma.Pix)
		assert.Zero(t, res.ScaleFactor)
	}
	res, err := Convert(img, WithScale(AutoNormalize(true)))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "normalization skipped")
	res, err = Convert(img, WithToneMap(tonemap.Factor(2)))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "tone mapping")
}

func TestConvertD65White(t *testing.T) {
	img, err := float3.FromPixels([]float64{0.9505, 1.0, 1.089}, 1, 1)
	require.NoError(t, err)
	res, err := Convert(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, res.Gamma.Pix, 1e-6)
	assert.InDeltaSlice(t, []float64{1.0000149, 1.00005405, 1.00001585}, res.Raw.Pix, 1e-9)
	assert.InDelta(t, 0.9999459529212447, res.ScaleFactor, 1e-12)
	assert.Equal(t, []uint8{0xff, 0xff, 0xff, 0xff}, res.NRGBA().Pix)
}

func TestConvertSourceWhite(t *testing.T) {
	w := colorconv.WhiteD50
	img, err := float3.FromPixels([]float64{w[0], w[1], w[2]}, 1, 1)
	require.NoError(t, err)
	res, err := Convert(img, WithSourceWhite(colorconv.WhiteD50))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, res.Raw.Pix, 2e-4)
}

func TestConvertWorkerCountsAgree(t *testing.T) {
	pix := make([]float64, 3*64*33)
	for i := range pix {
		pix[i] = float64((i*31)%97) / 40
	}
	img, err := float3.FromPixels(pix, 64, 33)
	require.NoError(t, err)
	opts := []Option{WithToneMap(tonemap.Factor(1.2)), WithScale(AutoNormalize(true))}
	single, err := Convert(img, append(opts, WithWorkers(1))...)
	require.NoError(t, err)
	for _, n := range []int{0, 2, 5} {
		res, err := Convert(img, append(opts, WithWorkers(n))...)
		require.NoError(t, err)
		require.Equal(t, single.Raw.Pix, res.Raw.Pix)
		require.Equal(t, single.Gamma.Pix, res.Gamma.Pix)
		require.Equal(t, single.ScaleFactor, res.ScaleFactor)
	}
}

func TestConvertSubImageInput(t *testing.T) {
	img := test_image(t)
	right := img.SubImage(image.Rect(1, 0, 3, 2)).(*float3.Image)
	res, err := Convert(right)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Raw.Width())
	assert.Equal(t, 2, res.Raw.Height())
	assert.Equal(t, 0, res.Raw.Rect.Min.X)
	want := expected_raw(right, 1)
	if diff := cmp.Diff(want, res.Raw.Array(), approx); diff != "" {
		t.Fatalf("unexpected raw image (-want +got):\n%s", diff)
	}
}

func TestConvertInvalidArguments(t *testing.T) {
	img := test_image(t)
	nan, err := float3.FromPixels([]float64{0.1, math.NaN(), 0.2}, 1, 1)
	require.NoError(t, err)
	short := &float3.Image{Pix: make([]float64, 5), Stride: 6, Rect: img.Rect}
	testCases := []struct {
		name string
		img  *float3.Image
		opts []Option
	}{
		{"nil image", nil, nil},
		{"short image", short, nil},
		{"NaN pixel", nan, nil},
		{"negative threshold", img, []Option{WithParams(Params{ToneMapThreshold: -1})}},
		{"NaN factor", img, []Option{WithParams(Params{ToneMapFactor: math.NaN()})}},
		{"infinite scale", img, []Option{WithParams(Params{ScaleFactor: math.Inf(1)})}},
		{"zero threshold policy", img, []Option{WithToneMap(tonemap.Threshold(0))}},
		{"negative explicit scale", img, []Option{WithScale(Explicit(-2))}},
		{"unknown scale kind", img, []Option{WithScale(ScalePolicy{Kind: 42})}},
		{"bad source white", img, []Option{WithSourceWhite(colorconv.Vec3{0, 1, 1})}},
		{"negative workers", img, []Option{WithWorkers(-1)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Convert(tc.img, tc.opts...)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "%v", err)
		})
	}
}

func TestConvertLogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	res, err := ConvertParams(test_image(t), Params{ToneMapThreshold: 1, ToneMapFactor: 2, ScaleFactor: 3, IsScale: true}, WithLogger(l))
	require.NoError(t, err)
	assert.Equal(t, tonemap.Threshold(1), res.ToneMap)
	assert.Equal(t, Explicit(3), res.Scale)
	require.Len(t, res.Warnings, 2)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "toneMapFactor=2 ignored")
	assert.Contains(t, out, "isScale ignored")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "scale.factor=3")
	assert.Contains(t, out, "tone_map.ceiling=1")
	assert.Contains(t, out, "warnings=2")
}

func TestConvertZeroWidth(t *testing.T) {
	res, err := Convert(&float3.Image{Rect: image.Rect(0, 0, 0, 2), Stride: 3}, WithScale(AutoNormalize(true)))
	require.NoError(t, err)
	for _, img := range []*float3.Image{res.Raw, res.Gamma} {
		assert.Equal(t, 0, img.Width())
		assert.Equal(t, 2, img.Height())
	}
	assert.Zero(t, res.ScaleFactor)
	assert.Len(t, res.Warnings, 1)
}

func TestConvertOverflowingPixels(t *testing.T) {
	img, err := float3.FromArray([][][3]float64{{{1e308, 1.5e308, 0}, {0.2, 0.3, 0.1}}})
	require.NoError(t, err)
	res, err := Convert(img, WithScale(AutoNormalize(true)))
	require.NoError(t, err)
	for _, v := range res.Gamma.Pix {
		if !(v >= 0 && v <= 1) {
			t.Fatalf("gamma value %v is outside [0,1]: %v", v, res.Gamma.Pix)
		}
	}
	// the maximum comes from the finite pixel, its green primary
	_, g, _ := colorconv.XYZToLinearRGB(0.2, 0.3, 0.1)
	assert.InDelta(t, 1/g, res.ScaleFactor, 1e-9)
	assert.InDelta(t, 1, res.Gamma.PixelAt(1, 0)[1], 1e-12)
	assert.Equal(t, [3]float64{0, 1, 0}, res.Gamma.PixelAt(0, 0))
}
