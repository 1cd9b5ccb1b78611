package common

import "math"

// LevelShiftAndClip reverses the encoder's level shift (add 128) and clips
// the result to [0,255]. It reports whether the pre-clip value fell
// outside that range, so callers can surface an Internal Invariant
// Violation as a diagnostic without failing the decode — spec.md's
// decision point here is "clip at the IDCT boundary, don't just warn";
// the bool lets a caller still keep the original warn-only behavior.
func LevelShiftAndClip(v float64) (sample uint8, outOfRange bool) {
	shifted := math.Round(v) + 128
	clipped := shifted
	if clipped < 0 {
		clipped = 0
	}
	if clipped > 255 {
		clipped = 255
	}
	return uint8(clipped), shifted < 0 || shifted > 255
}
