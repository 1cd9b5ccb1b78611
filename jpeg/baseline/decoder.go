package baseline

import (
	"bytes"
	"io"

	"github.com/cocosip/go-jpeg/jpeg/common"
)

// Decode parses a baseline sequential 4:4:4 JFIF/JPEG byte stream and
// returns the reconstructed RGB raster (3 interleaved 8-bit samples per
// pixel, row-major) along with its dimensions. warnings carries any
// Internal Invariant Violations observed while reconstructing samples
// (an out-of-range IDCT output clipped to [0,255]); the decode still
// succeeds when warnings is non-empty.
func Decode(data []byte) (rgb []byte, width, height int, warnings []error, err error) {
	br := bytes.NewReader(data)
	r := common.NewReader(br)

	marker, err := r.ReadMarker()
	if err != nil {
		return nil, 0, 0, nil, common.Malformed(common.ErrInvalidSOI, "could not read first marker")
	}
	if marker != common.MarkerSOI {
		return nil, 0, 0, nil, common.Malformed(common.ErrInvalidSOI, "missing SOI marker")
	}

	var (
		quantTables    [2]*[64]int32
		dcTables       [2]*common.HuffmanTable
		acTables       [2]*common.HuffmanTable
		gotSOF, gotSOS bool
		sawEOI         bool
	)

	for !sawEOI {
		marker, err := r.ReadMarker()
		if err != nil {
			return nil, 0, 0, nil, common.Malformed(common.ErrUnexpectedEOF, "truncated before EOI")
		}

		switch {
		case marker == common.MarkerEOI:
			sawEOI = true

		case marker == common.MarkerDQT:
			seg, err := r.ReadSegment()
			if err != nil {
				return nil, 0, 0, nil, common.Malformed(err, "DQT segment")
			}
			if err := parseDQT(seg, &quantTables); err != nil {
				return nil, 0, 0, nil, err
			}

		case common.IsSOF(marker):
			if marker != common.MarkerSOF0 {
				return nil, 0, 0, nil, common.Unsupported(common.ErrUnsupportedFrameType, "only baseline SOF0 is supported")
			}
			seg, err := r.ReadSegment()
			if err != nil {
				return nil, 0, 0, nil, common.Malformed(err, "SOF0 segment")
			}
			width, height, err = parseSOF0(seg)
			if err != nil {
				return nil, 0, 0, nil, err
			}
			gotSOF = true

		case marker == common.MarkerDHT:
			seg, err := r.ReadSegment()
			if err != nil {
				return nil, 0, 0, nil, common.Malformed(err, "DHT segment")
			}
			if err := parseDHT(seg, &dcTables, &acTables); err != nil {
				return nil, 0, 0, nil, err
			}

		case marker == common.MarkerDRI:
			return nil, 0, 0, nil, common.Unsupported(common.ErrRestartIntervalsUnsupported, "DRI segment present")

		case marker == common.MarkerSOS:
			if !gotSOF {
				return nil, 0, 0, nil, common.Malformed(common.ErrInvalidSOS, "SOS before SOF0")
			}
			if _, err := r.ReadSegment(); err != nil {
				return nil, 0, 0, nil, common.Malformed(err, "SOS segment")
			}

			offset := len(data) - br.Len()
			end := bytes.Index(data[offset:], []byte{0xFF, 0xD9})
			if end < 0 {
				return nil, 0, 0, nil, common.Malformed(common.ErrInvalidEOI, "missing EOI after scan data")
			}
			scanBytes := data[offset : offset+end]
			if _, err := br.Seek(int64(offset+end), io.SeekStart); err != nil {
				return nil, 0, 0, nil, common.Malformed(err, "could not reposition past scan data")
			}

			rgb, warnings, err = decodeScan(scanBytes, width, height, &quantTables, &dcTables, &acTables)
			if err != nil {
				return nil, 0, 0, nil, err
			}
			gotSOS = true

		default:
			if !common.HasLength(marker) {
				return nil, 0, 0, nil, common.Malformed(common.ErrInvalidMarker, "unexpected standalone marker")
			}
			if _, err := r.ReadSegment(); err != nil {
				return nil, 0, 0, nil, common.Malformed(err, "could not skip segment")
			}
		}
	}

	if !gotSOS {
		return nil, 0, 0, nil, common.Malformed(common.ErrInvalidSOS, "missing SOS segment")
	}

	return rgb, width, height, warnings, nil
}

// DecodeScan decodes a raw interleaved 4:4:4 entropy-coded scan (as
// produced by the Interleaver stage, with no marker framing at all) using
// the fixed Annex-K tables, returning the reconstructed RGB raster. It is
// the byte-stuffed-bitstream half of Decode, exported so the staged
// pipeline orchestrator can resume from the Interleaver stage without
// re-deriving a JFIF wrapper first.
func DecodeScan(scanBytes []byte, width, height int) ([]byte, []error, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, common.Malformed(common.ErrInvalidDimensions, "width and height must be positive")
	}

	tables := StandardTables()
	quantTables := [2]*[64]int32{&tables.Luminance, &tables.Chrominance}
	dcTables := [2]*common.HuffmanTable{tables.DCLuminance, tables.DCChrominance}
	acTables := [2]*common.HuffmanTable{tables.ACLuminance, tables.ACChrominance}

	return decodeScan(scanBytes, width, height, &quantTables, &dcTables, &acTables)
}

func parseDQT(data []byte, quantTables *[2]*[64]int32) error {
	pos := 0
	for pos < len(data) {
		pq := data[pos] >> 4
		id := data[pos] & 0x0F
		pos++
		if id > 1 {
			return common.Malformed(common.ErrInvalidDQT, "quantization table id must be 0 or 1")
		}

		var table [64]int32
		if pq == 0 {
			if pos+64 > len(data) {
				return common.Malformed(common.ErrInvalidDQT, "truncated 8-bit DQT entries")
			}
			for j := 0; j < 64; j++ {
				table[common.ZigZag[j]] = int32(data[pos+j])
			}
			pos += 64
		} else {
			if pos+128 > len(data) {
				return common.Malformed(common.ErrInvalidDQT, "truncated 16-bit DQT entries")
			}
			for j := 0; j < 64; j++ {
				table[common.ZigZag[j]] = int32(data[pos+2*j])<<8 | int32(data[pos+2*j+1])
			}
			pos += 128
		}
		quantTables[id] = &table
	}
	return nil
}

func parseSOF0(data []byte) (int, int, error) {
	if len(data) < 6 {
		return 0, 0, common.Malformed(common.ErrInvalidSOF, "truncated SOF0 header")
	}

	precision := data[0]
	if precision != 8 {
		return 0, 0, common.Unsupported(common.ErrUnsupportedFrameType, "only 8-bit sample precision is supported")
	}

	height := int(data[1])<<8 | int(data[2])
	width := int(data[3])<<8 | int(data[4])
	numComponents := int(data[5])

	if numComponents != 3 {
		return 0, 0, common.Unsupported(common.ErrUnsupportedComponents, "only 3-component frames are supported")
	}
	if len(data) != 6+3*numComponents {
		return 0, 0, common.Malformed(common.ErrInvalidSOF, "component count does not match segment length")
	}
	for i := 0; i < numComponents; i++ {
		sampling := data[6+i*3+1]
		if sampling != 0x11 {
			return 0, 0, common.Unsupported(common.ErrUnsupportedSampling, "non-4:4:4 sampling factors")
		}
	}
	if width == 0 || height == 0 {
		return 0, 0, common.Malformed(common.ErrInvalidDimensions, "zero width or height")
	}

	return width, height, nil
}

func parseDHT(data []byte, dcTables, acTables *[2]*common.HuffmanTable) error {
	pos := 0
	for pos < len(data) {
		if pos+17 > len(data) {
			return common.Malformed(common.ErrInvalidDHT, "truncated DHT header")
		}
		class := data[pos] >> 4
		id := data[pos] & 0x0F
		if id > 1 {
			return common.Malformed(common.ErrInvalidDHT, "Huffman table id must be 0 or 1")
		}
		pos++

		var bits [16]int
		total := 0
		for i := 0; i < 16; i++ {
			bits[i] = int(data[pos+i])
			total += bits[i]
		}
		pos += 16
		if pos+total > len(data) {
			return common.Malformed(common.ErrInvalidDHT, "symbol count exceeds segment length")
		}

		values := make([]byte, total)
		copy(values, data[pos:pos+total])
		pos += total

		table := &common.HuffmanTable{Bits: bits, Values: values}
		if err := table.Build(); err != nil {
			return common.Malformed(common.ErrInvalidDHT, "could not build Huffman table")
		}

		if class == 0 {
			dcTables[id] = table
		} else {
			acTables[id] = table
		}
	}
	return nil
}

func decodeScan(
	scanBytes []byte,
	width, height int,
	quantTables *[2]*[64]int32,
	dcTables, acTables *[2]*common.HuffmanTable,
) ([]byte, []error, error) {
	if quantTables[0] == nil || quantTables[1] == nil {
		return nil, nil, common.Malformed(common.ErrInvalidDQT, "missing quantization table")
	}
	if dcTables[0] == nil || dcTables[1] == nil || acTables[0] == nil || acTables[1] == nil {
		return nil, nil, common.Malformed(common.ErrInvalidDHT, "missing Huffman table")
	}

	paddedW := common.DivCeil(width, 8) * 8
	paddedH := common.DivCeil(height, 8) * 8
	mcuCols := paddedW / 8
	mcuRows := paddedH / 8

	y := make([]byte, paddedW*paddedH)
	cb := make([]byte, paddedW*paddedH)
	cr := make([]byte, paddedW*paddedH)

	dec := common.NewHuffmanDecoder(bytes.NewReader(scanBytes))

	dcPredY, dcPredCb, dcPredCr := 0, 0, 0
	var warnings []error

	for mr := 0; mr < mcuRows; mr++ {
		for mc := 0; mc < mcuCols; mc++ {
			var err error
			dcPredY, err = decodeBlock(dec, y, paddedW, mc*8, mr*8, quantTables[0], dcTables[0], acTables[0], dcPredY, &warnings)
			if err != nil {
				return nil, nil, err
			}
			dcPredCb, err = decodeBlock(dec, cb, paddedW, mc*8, mr*8, quantTables[1], dcTables[1], acTables[1], dcPredCb, &warnings)
			if err != nil {
				return nil, nil, err
			}
			dcPredCr, err = decodeBlock(dec, cr, paddedW, mc*8, mr*8, quantTables[1], dcTables[1], acTables[1], dcPredCr, &warnings)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	rgb := make([]byte, width*height*3)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			p := row*paddedW + col
			r, g, b := common.YCbCrToRGB(y[p], cb[p], cr[p])
			o := (row*width + col) * 3
			rgb[o], rgb[o+1], rgb[o+2] = r, g, b
		}
	}

	return rgb, warnings, nil
}

// decodeBlock Huffman-decodes, dequantizes, and inverse-transforms one 8x8
// block, writing its samples into channel, and returns the updated DC
// predictor.
func decodeBlock(
	dec *common.HuffmanDecoder,
	channel []byte,
	stride, x0, y0 int,
	table *[64]int32,
	dcTable, acTable *common.HuffmanTable,
	dcPred int,
	warnings *[]error,
) (int, error) {
	diff, err := common.DecodeDC(dec, dcTable)
	if err != nil {
		return dcPred, common.Malformed(err, "DC Huffman decode")
	}
	dcPred += diff

	runs, err := common.DecodeACRuns(dec, acTable)
	if err != nil {
		return dcPred, common.Malformed(err, "AC Huffman decode")
	}

	zz := common.DecodeAC(runs)
	zz[0] = int32(dcPred)

	raster := common.ZigZagUnscan(&zz)
	coef := common.Dequantize(raster, table)
	spatial := common.InverseDCT(coef)

	for yy := 0; yy < 8; yy++ {
		for xx := 0; xx < 8; xx++ {
			sample, outOfRange := common.LevelShiftAndClip(spatial[yy*8+xx])
			if outOfRange {
				*warnings = append(*warnings, common.Invariant(common.ErrSampleOutOfRange, "clipped reconstructed sample"))
			}
			channel[(y0+yy)*stride+(x0+xx)] = sample
		}
	}

	return dcPred, nil
}
