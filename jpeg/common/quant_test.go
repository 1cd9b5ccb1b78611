package common

import "testing"

func TestQuantizeDequantizeRoundTripIsWithinOneStep(t *testing.T) {
	table := DefaultLuminanceQuantTable

	var coef Block
	for i := range coef {
		coef[i] = float64(i*7-200) + 0.3
	}

	q := Quantize(coef, &table)
	back := Dequantize(q, &table)

	for i := range coef {
		step := float64(table[i])
		if diff := back[i] - coef[i]; diff > step || diff < -step {
			t.Errorf("index %d: dequantized %v too far from original %v (step %v)", i, back[i], coef[i], step)
		}
	}
}

func TestQuantizeRoundsHalfAwayFromZero(t *testing.T) {
	var table [64]int32
	for i := range table {
		table[i] = 10
	}

	var coef Block
	coef[0] = 25  // 2.5 steps -> rounds away from zero to 3
	coef[1] = -25 // -2.5 steps -> rounds away from zero to -3
	coef[2] = 24  // 2.4 steps -> rounds to 2
	coef[3] = -24 // -2.4 steps -> rounds to -2

	q := Quantize(coef, &table)
	want := [4]int32{3, -3, 2, -2}
	for i, w := range want {
		if q[i] != w {
			t.Errorf("index %d: got %d, want %d", i, q[i], w)
		}
	}
}

func TestQuantizeSaturatesToInt16Range(t *testing.T) {
	var table [64]int32
	for i := range table {
		table[i] = 1
	}

	var coef Block
	coef[0] = 1e9
	coef[1] = -1e9

	q := Quantize(coef, &table)
	if q[0] != 32767 {
		t.Errorf("expected saturation to 32767, got %d", q[0])
	}
	if q[1] != -32768 {
		t.Errorf("expected saturation to -32768, got %d", q[1])
	}
}

func TestDequantizeIsExactMultiply(t *testing.T) {
	table := DefaultChrominanceQuantTable
	var q [64]int32
	for i := range q {
		q[i] = int32(i - 32)
	}

	coef := Dequantize(q, &table)
	for i := range q {
		want := float64(q[i] * table[i])
		if coef[i] != want {
			t.Errorf("index %d: got %v, want %v", i, coef[i], want)
		}
	}
}
