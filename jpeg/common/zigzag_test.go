package common

import "testing"

func TestZigZagIsABijection(t *testing.T) {
	seen := make(map[int]bool, 64)
	for _, raster := range ZigZag {
		if raster < 0 || raster > 63 {
			t.Fatalf("raster index %d out of range", raster)
		}
		if seen[raster] {
			t.Fatalf("raster index %d visited more than once", raster)
		}
		seen[raster] = true
	}
	if len(seen) != 64 {
		t.Fatalf("expected 64 distinct raster indices, got %d", len(seen))
	}
}

func TestInverseZigZagUndoesZigZag(t *testing.T) {
	for scan, raster := range ZigZag {
		if InverseZigZag[raster] != scan {
			t.Errorf("InverseZigZag[%d] = %d, want %d", raster, InverseZigZag[raster], scan)
		}
	}
}

func TestZigZagScanUnscanRoundTrip(t *testing.T) {
	var block [64]int32
	for i := range block {
		block[i] = int32(i*3 - 96)
	}

	scanned := ZigZagScan(&block)
	back := ZigZagUnscan(&scanned)

	if back != block {
		t.Fatalf("round trip mismatch: got %v, want %v", back, block)
	}
}

func TestZigZagScanDCFirst(t *testing.T) {
	var block [64]int32
	block[0] = 42 // raster index 0 is always scan position 0 (the DC term)

	scanned := ZigZagScan(&block)
	if scanned[0] != 42 {
		t.Errorf("scanned[0] = %d, want 42", scanned[0])
	}
}
