package common

import "math"

// RGBToYCbCr converts one 8-bit RGB sample to YCbCr using the exact
// BT.601-style coefficients this codec is specified against. Results are
// rounded to nearest and clipped to [0,255].
func RGBToYCbCr(r, g, b uint8) (y, cb, cr uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)

	yf := 0.299*rf + 0.587*gf + 0.114*bf
	cbf := -0.168736*rf - 0.331264*gf + 0.5*bf + 128
	crf := 0.5*rf - 0.418688*gf - 0.081312*bf + 128

	return roundClip(yf), roundClip(cbf), roundClip(crf)
}

// YCbCrToRGB converts one 8-bit YCbCr sample back to RGB using the inverse
// of RGBToYCbCr's matrix. Results are rounded to nearest and clipped to
// [0,255].
func YCbCrToRGB(y, cb, cr uint8) (r, g, b uint8) {
	yf, cbf, crf := float64(y), float64(cb)-128, float64(cr)-128

	rf := yf + 1.402*crf
	gf := yf - 0.344136*cbf - 0.714136*crf
	bf := yf + 1.772*cbf

	return roundClip(rf), roundClip(gf), roundClip(bf)
}

func roundClip(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}
