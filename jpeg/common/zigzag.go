package common

// ZigZag maps a zig-zag scan position (0..63, DC first, then AC
// coefficients in roughly increasing spatial frequency along
// anti-diagonals) to the raster index (row-major, 0..63) of an 8x8 block.
// ZigZag[scanPos] = rasterIndex.
var ZigZag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// InverseZigZag is the precomputed inverse of ZigZag: InverseZigZag[raster]
// is the scan position at which that raster index is visited.
var InverseZigZag = buildInverseZigZag()

func buildInverseZigZag() [64]int {
	var inv [64]int
	for scan, raster := range ZigZag {
		inv[raster] = scan
	}
	return inv
}

// ZigZagScan flattens an 8x8 raster-order block into 64 entries ordered by
// zig-zag scan position.
func ZigZagScan(block *[64]int32) [64]int32 {
	var out [64]int32
	for scan, raster := range ZigZag {
		out[scan] = block[raster]
	}
	return out
}

// ZigZagUnscan reconstructs an 8x8 raster-order block from its 64-entry
// zig-zag sequence.
func ZigZagUnscan(zz *[64]int32) [64]int32 {
	var out [64]int32
	for scan, raster := range ZigZag {
		out[raster] = zz[scan]
	}
	return out
}
