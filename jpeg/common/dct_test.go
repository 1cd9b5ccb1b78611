package common

import (
	"math"
	"testing"
)

func TestForwardInverseDCTRoundTrip(t *testing.T) {
	cases := map[string]Block{
		"all zero": {},
		"constant": func() Block {
			var b Block
			for i := range b {
				b[i] = 10
			}
			return b
		}(),
		"ramp": func() Block {
			var b Block
			for i := range b {
				b[i] = float64(i) - 32
			}
			return b
		}(),
		"checkerboard": func() Block {
			var b Block
			for i := range b {
				if (i/8+i%8)%2 == 0 {
					b[i] = 127
				} else {
					b[i] = -128
				}
			}
			return b
		}(),
	}

	for name, block := range cases {
		t.Run(name, func(t *testing.T) {
			coef := ForwardDCT(block)
			back := InverseDCT(coef)
			for i := range block {
				if diff := math.Abs(block[i] - back[i]); diff > 1e-9 {
					t.Errorf("index %d: got %v, want %v (diff %v)", i, back[i], block[i], diff)
				}
			}
		})
	}
}

func TestForwardDCTDCTermIsScaledMean(t *testing.T) {
	var block Block
	for i := range block {
		block[i] = 5
	}
	coef := ForwardDCT(block)

	// The DC basis function is constant 1/sqrt(8) per axis, so a uniform
	// block of value v produces a DC coefficient of v * 64 * (1/sqrt(8))^2 = v*8.
	want := 5.0 * 8.0
	if diff := math.Abs(coef[0] - want); diff > 1e-9 {
		t.Errorf("DC coefficient = %v, want %v", coef[0], want)
	}
	for i := 1; i < 64; i++ {
		if diff := math.Abs(coef[i]); diff > 1e-9 {
			t.Errorf("AC coefficient %d = %v, want 0 for a uniform block", i, coef[i])
		}
	}
}
