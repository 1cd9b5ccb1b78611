// Package baseline implements the baseline sequential 4:4:4 JPEG codec:
// MCU partitioning, orthonormal DCT, fixed-table quantization, zig-zag
// reordering, DPCM/RLE, canonical Huffman coding with the standard Annex-K
// tables, and JFIF marker framing.
package baseline

import (
	"bytes"

	"github.com/cocosip/go-jpeg/jpeg/common"
)

// Quantization and Huffman table ids. Luminance (Y) uses id 0; both
// chrominance channels (Cb, Cr) share id 1.
const (
	tableIDLuminance   = 0
	tableIDChrominance = 1
)

// Tables bundles the fixed quantization tables, Huffman tables, and their
// canonical codes this codec always uses: there is no quality knob and no
// custom-table support, so every encode and every stage of the staged
// pipeline draws on exactly these values.
type Tables struct {
	Luminance, Chrominance                                [64]int32
	DCLuminance, ACLuminance, DCChrominance, ACChrominance *common.HuffmanTable
	DCLuminanceCodes, ACLuminanceCodes                     []common.HuffmanCode
	DCChrominanceCodes, ACChrominanceCodes                 []common.HuffmanCode
}

// StandardTables builds the fixed Annex-K quantization and Huffman tables.
func StandardTables() Tables {
	dcLum := common.BuildStandardHuffmanTable(common.StandardDCLuminanceBits, common.StandardDCLuminanceValues)
	acLum := common.BuildStandardHuffmanTable(common.StandardACLuminanceBits, common.StandardACLuminanceValues)
	dcChrom := common.BuildStandardHuffmanTable(common.StandardDCChrominanceBits, common.StandardDCChrominanceValues)
	acChrom := common.BuildStandardHuffmanTable(common.StandardACChrominanceBits, common.StandardACChrominanceValues)

	return Tables{
		Luminance:           common.DefaultLuminanceQuantTable,
		Chrominance:         common.DefaultChrominanceQuantTable,
		DCLuminance:         dcLum,
		ACLuminance:         acLum,
		DCChrominance:       dcChrom,
		ACChrominance:       acChrom,
		DCLuminanceCodes:    common.BuildHuffmanCodes(dcLum),
		ACLuminanceCodes:    common.BuildHuffmanCodes(acLum),
		DCChrominanceCodes:  common.BuildHuffmanCodes(dcChrom),
		ACChrominanceCodes:  common.BuildHuffmanCodes(acChrom),
	}
}

// Encode encodes an RGB raster (3 interleaved 8-bit samples per pixel,
// row-major) as a baseline sequential JFIF/JPEG byte stream using 4:4:4
// chroma sampling and the fixed Annex-K tables.
func Encode(rgb []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, common.Malformed(common.ErrInvalidDimensions, "width and height must be positive")
	}
	if len(rgb) != width*height*3 {
		return nil, common.Malformed(common.ErrBufferTooSmall, "pixel buffer does not match width*height*3")
	}

	y, cb, cr, paddedW, paddedH := splitAndPad(rgb, width, height)

	tables := StandardTables()
	lumTable := tables.Luminance
	chromTable := tables.Chrominance
	dcLumCodes, acLumCodes := tables.DCLuminanceCodes, tables.ACLuminanceCodes
	dcChromCodes, acChromCodes := tables.DCChrominanceCodes, tables.ACChrominanceCodes

	mcuCols := paddedW / 8
	mcuRows := paddedH / 8
	numMCUs := mcuCols * mcuRows

	dcY := make([]int, numMCUs)
	dcCb := make([]int, numMCUs)
	dcCr := make([]int, numMCUs)
	acY := make([][]common.RunValue, numMCUs)
	acCb := make([][]common.RunValue, numMCUs)
	acCr := make([][]common.RunValue, numMCUs)

	idx := 0
	for mr := 0; mr < mcuRows; mr++ {
		for mc := 0; mc < mcuCols; mc++ {
			dcY[idx], acY[idx] = encodeBlock(y, paddedW, mc*8, mr*8, &lumTable)
			dcCb[idx], acCb[idx] = encodeBlock(cb, paddedW, mc*8, mr*8, &chromTable)
			dcCr[idx], acCr[idx] = encodeBlock(cr, paddedW, mc*8, mr*8, &chromTable)
			idx++
		}
	}

	diffY := common.DPCMEncode(dcY)
	diffCb := common.DPCMEncode(dcCb)
	diffCr := common.DPCMEncode(dcCr)

	var scan bytes.Buffer
	enc := common.NewHuffmanEncoder(&scan)
	for i := 0; i < numMCUs; i++ {
		if err := common.EncodeDC(enc, diffY[i], dcLumCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeACRuns(enc, acY[i], acLumCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeDC(enc, diffCb[i], dcChromCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeACRuns(enc, acCb[i], acChromCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeDC(enc, diffCr[i], dcChromCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeACRuns(enc, acCr[i], acChromCodes); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return AssembleJPEG(scan.Bytes(), width, height)
}

// AssembleJPEG wraps an already entropy-coded, interleaved 4:4:4 scan (as
// produced by the Interleaver stage) in JFIF marker framing using the
// fixed Annex-K tables, producing a complete JPEG byte stream. Encode
// calls this directly; the staged pipeline orchestrator calls it too, so
// that stopping at the JPEG stage always reproduces exactly what Encode
// would have written for the same pixels.
func AssembleJPEG(scan []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, common.Malformed(common.ErrInvalidDimensions, "width and height must be positive")
	}

	lumTable := common.DefaultLuminanceQuantTable
	chromTable := common.DefaultChrominanceQuantTable

	dcLum := common.BuildStandardHuffmanTable(common.StandardDCLuminanceBits, common.StandardDCLuminanceValues)
	acLum := common.BuildStandardHuffmanTable(common.StandardACLuminanceBits, common.StandardACLuminanceValues)
	dcChrom := common.BuildStandardHuffmanTable(common.StandardDCChrominanceBits, common.StandardDCChrominanceValues)
	acChrom := common.BuildStandardHuffmanTable(common.StandardACChrominanceBits, common.StandardACChrominanceValues)

	var out bytes.Buffer
	w := common.NewWriter(&out)
	if err := writeHeader(w, width, height, &lumTable, &chromTable, dcLum, acLum, dcChrom, acChrom); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(scan); err != nil {
		return nil, err
	}
	if err := w.WriteMarker(common.MarkerEOI); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// splitAndPad converts an interleaved RGB raster to three independent
// YCbCr channels, edge-padded up to the next multiple of 8 in each
// dimension (replicate-edge on the bottom and right).
func splitAndPad(rgb []byte, width, height int) (y, cb, cr []byte, paddedW, paddedH int) {
	paddedW = common.DivCeil(width, 8) * 8
	paddedH = common.DivCeil(height, 8) * 8

	y = make([]byte, paddedW*paddedH)
	cb = make([]byte, paddedW*paddedH)
	cr = make([]byte, paddedW*paddedH)

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			o := (row*width + col) * 3
			yy, cbb, crr := common.RGBToYCbCr(rgb[o], rgb[o+1], rgb[o+2])
			p := row*paddedW + col
			y[p], cb[p], cr[p] = yy, cbb, crr
		}
		last := row*paddedW + width - 1
		for col := width; col < paddedW; col++ {
			p := row*paddedW + col
			y[p], cb[p], cr[p] = y[last], cb[last], cr[last]
		}
	}
	for row := height; row < paddedH; row++ {
		copy(y[row*paddedW:(row+1)*paddedW], y[(height-1)*paddedW:height*paddedW])
		copy(cb[row*paddedW:(row+1)*paddedW], cb[(height-1)*paddedW:height*paddedW])
		copy(cr[row*paddedW:(row+1)*paddedW], cr[(height-1)*paddedW:height*paddedW])
	}

	return y, cb, cr, paddedW, paddedH
}

// encodeBlock runs one 8x8 block through level-shift, DCT, quantization,
// zig-zag, and run-length encoding, returning its DC value and AC run list.
func encodeBlock(channel []byte, stride, x0, y0 int, table *[64]int32) (int, []common.RunValue) {
	var block common.Block
	for yy := 0; yy < 8; yy++ {
		for xx := 0; xx < 8; xx++ {
			block[yy*8+xx] = float64(channel[(y0+yy)*stride+(x0+xx)]) - 128
		}
	}
	coef := common.ForwardDCT(block)
	q := common.Quantize(coef, table)
	zz := common.ZigZagScan(&q)
	runs := common.EncodeAC(&zz)
	return int(zz[0]), runs
}

func writeHeader(
	w *common.Writer,
	width, height int,
	lumTable, chromTable *[64]int32,
	dcLum, acLum, dcChrom, acChrom *common.HuffmanTable,
) error {
	if err := w.WriteMarker(common.MarkerSOI); err != nil {
		return err
	}

	app0 := append([]byte("JFIF\x00"), 0x01, 0x01, 0x01, 0x00, 0x48, 0x00, 0x48, 0x00, 0x00)
	if err := w.WriteSegment(common.MarkerAPP0, app0); err != nil {
		return err
	}

	if err := writeDQT(w, tableIDLuminance, lumTable); err != nil {
		return err
	}
	if err := writeDQT(w, tableIDChrominance, chromTable); err != nil {
		return err
	}

	if err := writeSOF0(w, width, height); err != nil {
		return err
	}

	if err := common.WriteHuffmanTable(w, 0, tableIDLuminance, dcLum); err != nil {
		return err
	}
	if err := common.WriteHuffmanTable(w, 1, tableIDLuminance, acLum); err != nil {
		return err
	}
	if err := common.WriteHuffmanTable(w, 0, tableIDChrominance, dcChrom); err != nil {
		return err
	}
	if err := common.WriteHuffmanTable(w, 1, tableIDChrominance, acChrom); err != nil {
		return err
	}

	return writeSOS(w)
}

func writeDQT(w *common.Writer, id byte, table *[64]int32) error {
	data := make([]byte, 1+64)
	data[0] = id
	for j := 0; j < 64; j++ {
		data[1+j] = byte(table[common.ZigZag[j]])
	}
	return w.WriteSegment(common.MarkerDQT, data)
}

func writeSOF0(w *common.Writer, width, height int) error {
	data := make([]byte, 6+3*3)
	data[0] = 8
	data[1] = byte(height >> 8)
	data[2] = byte(height)
	data[3] = byte(width >> 8)
	data[4] = byte(width)
	data[5] = 3

	comps := [3]struct{ id, qid byte }{
		{1, tableIDLuminance},
		{2, tableIDChrominance},
		{3, tableIDChrominance},
	}
	for i, c := range comps {
		o := 6 + i*3
		data[o] = c.id
		data[o+1] = 0x11 // 4:4:4: horizontal and vertical sampling factor both 1
		data[o+2] = c.qid
	}

	return w.WriteSegment(common.MarkerSOF0, data)
}

func writeSOS(w *common.Writer) error {
	data := []byte{
		3,
		1, 0x00, // Y: DC table 0, AC table 0
		2, 0x11, // Cb: DC table 1, AC table 1
		3, 0x11, // Cr: DC table 1, AC table 1
		0, 0x3F, 0, // spectral selection / successive approximation, fixed for baseline
	}
	return w.WriteSegment(common.MarkerSOS, data)
}
