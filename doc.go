/*
Package xyzsrgb converts images in CIE XYZ color space into sRGB, with
optional luminance tone mapping and scaling of the linear primaries.

Images are *float3.Image values of shape [height, width, 3]. Any numeric
pixel data can be wrapped with float3.FromPixels or float3.FromArray.

Examples:

	img, err := float3.FromArray(xyz)
	res, err := xyzsrgb.Convert(img, xyzsrgb.WithToneMap(tonemap.Factor(4)), xyzsrgb.WithScale(xyzsrgb.AutoNormalize(true)))
	// res.Gamma holds encoded sRGB in [0,1], res.Raw the linear primaries
*/
package xyzsrgb
