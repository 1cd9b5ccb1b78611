package pipeline

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/cocosip/go-jpeg/jpeg/baseline"
	"github.com/cocosip/go-jpeg/jpeg/common"
)

// Orchestrator runs the baseline JPEG pipeline stage by stage. It has no
// configuration of its own: every stage draws on the same fixed Annex-K
// tables baseline.Encode/Decode use.
type Orchestrator struct{}

// NewOrchestrator creates a staged pipeline orchestrator.
func NewOrchestrator() *Orchestrator { return &Orchestrator{} }

// Encode runs the staged pipeline over a planar YCbCr image (one byte per
// sample per plane, row-major, width*height long) up to and including
// stopAt, then returns everything computed so far. Passing StageJPEG runs
// the whole pipeline, producing a result identical in its JPEG field to
// what baseline.Encode would write for the same pixels (after an RGB round
// trip through baseline.Encode's own color conversion).
func (o *Orchestrator) Encode(y, cb, cr []byte, width, height int, stopAt StageTag) (*PipelineResult, error) {
	if width <= 0 || height <= 0 {
		return nil, common.Malformed(common.ErrInvalidDimensions, "width and height must be positive")
	}
	n := width * height
	if len(y) != n || len(cb) != n || len(cr) != n {
		return nil, common.Malformed(common.ErrBufferTooSmall, "channel buffers do not match width*height")
	}
	if stageIndex(stopAt) < 0 {
		return nil, common.Malformed(common.ErrUnknownStage, "unknown stage tag")
	}

	paddedW := common.DivCeil(width, 8) * 8
	paddedH := common.DivCeil(height, 8) * 8
	mcuCols := paddedW / 8
	mcuRows := paddedH / 8

	result := &PipelineResult{
		RunID:        uuid.New(),
		Width:        width,
		Height:       height,
		PaddedWidth:  paddedW,
		PaddedHeight: paddedH,
		MCUCols:      mcuCols,
		MCURows:      mcuRows,
		Tables:       baseline.StandardTables(),
	}

	done := func(tag StageTag) bool { return stageIndex(tag) >= stageIndex(stopAt) }

	yPad := padChannel(y, width, height, paddedW, paddedH)
	cbPad := padChannel(cb, width, height, paddedW, paddedH)
	crPad := padChannel(cr, width, height, paddedW, paddedH)

	result.MCUs = &MCUStage{
		Y:  toBlocks(yPad, paddedW, mcuCols, mcuRows),
		Cb: toBlocks(cbPad, paddedW, mcuCols, mcuRows),
		Cr: toBlocks(crPad, paddedW, mcuCols, mcuRows),
	}
	if done(StageMCUs) {
		return result, nil
	}

	result.DCT = &DCTStage{
		Y:  dctBlocks(result.MCUs.Y),
		Cb: dctBlocks(result.MCUs.Cb),
		Cr: dctBlocks(result.MCUs.Cr),
	}
	if done(StageDCT) {
		return result, nil
	}

	result.Quant = &QuantStage{
		Y:                quantBlocks(result.DCT.Y, &result.Tables.Luminance),
		Cb:               quantBlocks(result.DCT.Cb, &result.Tables.Chrominance),
		Cr:               quantBlocks(result.DCT.Cr, &result.Tables.Chrominance),
		TableLuminance:   result.Tables.Luminance,
		TableChrominance: result.Tables.Chrominance,
	}
	if done(StageQuant) {
		return result, nil
	}

	zz := &ZigzagStage{}
	zz.DCY, zz.ACY = zigzagSplit(result.Quant.Y)
	zz.DCCb, zz.ACCb = zigzagSplit(result.Quant.Cb)
	zz.DCCr, zz.ACCr = zigzagSplit(result.Quant.Cr)
	result.Zigzag = zz
	if done(StageZigzag) {
		return result, nil
	}

	result.DPCM = &DPCMStage{
		Y:  common.DPCMEncode(result.Zigzag.DCY),
		Cb: common.DPCMEncode(result.Zigzag.DCCb),
		Cr: common.DPCMEncode(result.Zigzag.DCCr),
	}
	if done(StageDPCM) {
		return result, nil
	}

	result.RLE = &RLEStage{
		Y:  rleEncode(result.Zigzag.ACY),
		Cb: rleEncode(result.Zigzag.ACCb),
		Cr: rleEncode(result.Zigzag.ACCr),
	}
	if done(StageRLE) {
		return result, nil
	}

	dcY, err := huffmanEncodeDC(result.DPCM.Y, result.Tables.DCLuminanceCodes)
	if err != nil {
		return nil, err
	}
	dcCb, err := huffmanEncodeDC(result.DPCM.Cb, result.Tables.DCChrominanceCodes)
	if err != nil {
		return nil, err
	}
	dcCr, err := huffmanEncodeDC(result.DPCM.Cr, result.Tables.DCChrominanceCodes)
	if err != nil {
		return nil, err
	}
	result.DC = &DCStage{Y: dcY, Cb: dcCb, Cr: dcCr}
	if done(StageDC) {
		return result, nil
	}

	acY, err := huffmanEncodeAC(result.RLE.Y, result.Tables.ACLuminanceCodes)
	if err != nil {
		return nil, err
	}
	acCb, err := huffmanEncodeAC(result.RLE.Cb, result.Tables.ACChrominanceCodes)
	if err != nil {
		return nil, err
	}
	acCr, err := huffmanEncodeAC(result.RLE.Cr, result.Tables.ACChrominanceCodes)
	if err != nil {
		return nil, err
	}
	result.AC = &ACStage{Y: acY, Cb: acCb, Cr: acCr}
	if done(StageAC) {
		return result, nil
	}

	scan, err := interleaveScan(result.DPCM, result.RLE, result.Tables, mcuCols*mcuRows)
	if err != nil {
		return nil, err
	}
	result.Interleaver = &InterleaverStage{Bitstream: scan}
	if done(StageInterleaver) {
		return result, nil
	}

	jpegBytes, err := baseline.AssembleJPEG(scan, width, height)
	if err != nil {
		return nil, err
	}
	result.JPEG = &JPEGStage{Bytes: jpegBytes}
	return result, nil
}

// Decode reconstructs a YCbCr raster by walking backward from resumeFrom,
// using whichever stage fields are populated. It returns a Stage Input
// Missing error if the data needed for resumeFrom (or an earlier stage it
// depends on) was never computed.
func (o *Orchestrator) Decode(result *PipelineResult, resumeFrom StageTag) (*YCbCrRaster, error) {
	if stageIndex(resumeFrom) < 0 {
		return nil, common.Malformed(common.ErrUnknownStage, "unknown stage tag")
	}

	switch resumeFrom {
	case StageJPEG:
		if result.JPEG == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "jpeg stage")
		}
		rgb, width, height, _, err := baseline.Decode(result.JPEG.Bytes)
		if err != nil {
			return nil, err
		}
		return rgbToRaster(rgb, width, height), nil

	case StageInterleaver:
		if result.Interleaver == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "interleaver stage")
		}
		rgb, _, err := baseline.DecodeScan(result.Interleaver.Bitstream, result.Width, result.Height)
		if err != nil {
			return nil, err
		}
		return rgbToRaster(rgb, result.Width, result.Height), nil

	case StageAC:
		if result.AC == nil || result.DC == nil || result.Quant == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "AC stage")
		}
		dcY, err := huffmanDecodeDC(result.DC.Y, result.Tables.DCLuminance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		dcCb, err := huffmanDecodeDC(result.DC.Cb, result.Tables.DCChrominance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		dcCr, err := huffmanDecodeDC(result.DC.Cr, result.Tables.DCChrominance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		acY, err := huffmanDecodeAC(result.AC.Y, result.Tables.ACLuminance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		acCb, err := huffmanDecodeAC(result.AC.Cb, result.Tables.ACChrominance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		acCr, err := huffmanDecodeAC(result.AC.Cr, result.Tables.ACChrominance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		return reconstructFromDCAC(result, common.DPCMDecode(dcY), common.DPCMDecode(dcCb), common.DPCMDecode(dcCr), acY, acCb, acCr)

	case StageDC:
		if result.DC == nil || result.RLE == nil || result.Quant == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "DC stage")
		}
		dcY, err := huffmanDecodeDC(result.DC.Y, result.Tables.DCLuminance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		dcCb, err := huffmanDecodeDC(result.DC.Cb, result.Tables.DCChrominance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		dcCr, err := huffmanDecodeDC(result.DC.Cr, result.Tables.DCChrominance, result.MCUCols*result.MCURows)
		if err != nil {
			return nil, err
		}
		acY := rleDecode(result.RLE.Y)
		acCb := rleDecode(result.RLE.Cb)
		acCr := rleDecode(result.RLE.Cr)
		return reconstructFromDCAC(result, common.DPCMDecode(dcY), common.DPCMDecode(dcCb), common.DPCMDecode(dcCr), acY, acCb, acCr)

	case StageRLE:
		if result.RLE == nil || result.DPCM == nil || result.Quant == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "RLE stage")
		}
		acY := rleDecode(result.RLE.Y)
		acCb := rleDecode(result.RLE.Cb)
		acCr := rleDecode(result.RLE.Cr)
		return reconstructFromDCAC(result, common.DPCMDecode(result.DPCM.Y), common.DPCMDecode(result.DPCM.Cb), common.DPCMDecode(result.DPCM.Cr), acY, acCb, acCr)

	case StageDPCM:
		if result.DPCM == nil || result.Zigzag == nil || result.Quant == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "DPCM stage")
		}
		return reconstructFromDCAC(result, common.DPCMDecode(result.DPCM.Y), common.DPCMDecode(result.DPCM.Cb), common.DPCMDecode(result.DPCM.Cr), result.Zigzag.ACY, result.Zigzag.ACCb, result.Zigzag.ACCr)

	case StageZigzag:
		if result.Zigzag == nil || result.Quant == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "zigzag stage")
		}
		return reconstructFromDCAC(result, result.Zigzag.DCY, result.Zigzag.DCCb, result.Zigzag.DCCr, result.Zigzag.ACY, result.Zigzag.ACCb, result.Zigzag.ACCr)

	case StageQuant:
		if result.Quant == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "quant stage")
		}
		yPlane, warn1 := reconstructFromQuantBlocks(result.Quant.Y, &result.Quant.TableLuminance, result)
		cbPlane, warn2 := reconstructFromQuantBlocks(result.Quant.Cb, &result.Quant.TableChrominance, result)
		crPlane, warn3 := reconstructFromQuantBlocks(result.Quant.Cr, &result.Quant.TableChrominance, result)
		_ = warn1
		_ = warn2
		_ = warn3
		return cropRaster(yPlane, cbPlane, crPlane, result), nil

	case StageDCT:
		if result.DCT == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "DCT stage")
		}
		yPlane := reconstructFromSpatialBlocks(result.DCT.Y, result)
		cbPlane := reconstructFromSpatialBlocks(result.DCT.Cb, result)
		crPlane := reconstructFromSpatialBlocks(result.DCT.Cr, result)
		return cropRaster(yPlane, cbPlane, crPlane, result), nil

	case StageMCUs:
		if result.MCUs == nil {
			return nil, common.StageMissing(common.ErrStageDataMissing, "MCUs stage")
		}
		yPlane := blocksToPlane(result.MCUs.Y, result)
		cbPlane := blocksToPlane(result.MCUs.Cb, result)
		crPlane := blocksToPlane(result.MCUs.Cr, result)
		return cropRaster(yPlane, cbPlane, crPlane, result), nil
	}

	return nil, common.StageMissing(common.ErrStageDataMissing, "unrecognized stage")
}

// padChannel edge-pads a planar channel up to paddedW x paddedH, replicating
// the rightmost column and bottom row.
func padChannel(channel []byte, width, height, paddedW, paddedH int) []byte {
	out := make([]byte, paddedW*paddedH)
	for row := 0; row < height; row++ {
		copy(out[row*paddedW:row*paddedW+width], channel[row*width:row*width+width])
		last := out[row*paddedW+width-1]
		for col := width; col < paddedW; col++ {
			out[row*paddedW+col] = last
		}
	}
	for row := height; row < paddedH; row++ {
		copy(out[row*paddedW:(row+1)*paddedW], out[(height-1)*paddedW:height*paddedW])
	}
	return out
}

// toBlocks partitions a padded plane into 8x8 raw-sample blocks in
// row-major MCU order.
func toBlocks(plane []byte, paddedW, mcuCols, mcuRows int) []common.Block {
	blocks := make([]common.Block, mcuCols*mcuRows)
	idx := 0
	for mr := 0; mr < mcuRows; mr++ {
		for mc := 0; mc < mcuCols; mc++ {
			var b common.Block
			for yy := 0; yy < 8; yy++ {
				for xx := 0; xx < 8; xx++ {
					b[yy*8+xx] = float64(plane[(mr*8+yy)*paddedW+(mc*8+xx)])
				}
			}
			blocks[idx] = b
			idx++
		}
	}
	return blocks
}

func dctBlocks(blocks []common.Block) []common.Block {
	out := make([]common.Block, len(blocks))
	for i, b := range blocks {
		var shifted common.Block
		for j := 0; j < 64; j++ {
			shifted[j] = b[j] - 128
		}
		out[i] = common.ForwardDCT(shifted)
	}
	return out
}

func quantBlocks(blocks []common.Block, table *[64]int32) [][64]int32 {
	out := make([][64]int32, len(blocks))
	for i, b := range blocks {
		out[i] = common.Quantize(b, table)
	}
	return out
}

// zigzagSplit zig-zag-scans every quantized block and splits it into its
// DC value and its 63 AC values.
func zigzagSplit(quant [][64]int32) ([]int, [][]int32) {
	dc := make([]int, len(quant))
	ac := make([][]int32, len(quant))
	for i, q := range quant {
		zz := common.ZigZagScan(&q)
		dc[i] = int(zz[0])
		acRow := make([]int32, 63)
		copy(acRow, zz[1:])
		ac[i] = acRow
	}
	return dc, ac
}

func rleEncode(ac [][]int32) [][]common.RunValue {
	out := make([][]common.RunValue, len(ac))
	for i, row := range ac {
		var zz [64]int32
		copy(zz[1:], row)
		out[i] = common.EncodeAC(&zz)
	}
	return out
}

func rleDecode(runs [][]common.RunValue) [][]int32 {
	out := make([][]int32, len(runs))
	for i, r := range runs {
		zz := common.DecodeAC(r)
		row := make([]int32, 63)
		copy(row, zz[1:])
		out[i] = row
	}
	return out
}

func huffmanEncodeDC(diffs []int, codes []common.HuffmanCode) ([]byte, error) {
	var buf bytes.Buffer
	enc := common.NewHuffmanEncoder(&buf)
	for _, d := range diffs {
		if err := common.EncodeDC(enc, d, codes); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func huffmanEncodeAC(runs [][]common.RunValue, codes []common.HuffmanCode) ([]byte, error) {
	var buf bytes.Buffer
	enc := common.NewHuffmanEncoder(&buf)
	for _, r := range runs {
		if err := common.EncodeACRuns(enc, r, codes); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func huffmanDecodeDC(data []byte, table *common.HuffmanTable, count int) ([]int, error) {
	dec := common.NewHuffmanDecoder(bytes.NewReader(data))
	out := make([]int, count)
	for i := 0; i < count; i++ {
		v, err := common.DecodeDC(dec, table)
		if err != nil {
			return nil, common.Malformed(err, "DC Huffman decode")
		}
		out[i] = v
	}
	return out, nil
}

func huffmanDecodeAC(data []byte, table *common.HuffmanTable, count int) ([][]int32, error) {
	dec := common.NewHuffmanDecoder(bytes.NewReader(data))
	out := make([][]int32, count)
	for i := 0; i < count; i++ {
		runs, err := common.DecodeACRuns(dec, table)
		if err != nil {
			return nil, common.Malformed(err, "AC Huffman decode")
		}
		zz := common.DecodeAC(runs)
		row := make([]int32, 63)
		copy(row, zz[1:])
		out[i] = row
	}
	return out, nil
}

// interleaveScan builds the final entropy-coded scan by re-emitting the
// already-computed DPCM diffs and RLE runs in strict Y, Cb, Cr order per
// MCU — the same interleave baseline.Encode produces directly.
func interleaveScan(dpcm *DPCMStage, rle *RLEStage, tables baseline.Tables, numMCUs int) ([]byte, error) {
	var buf bytes.Buffer
	enc := common.NewHuffmanEncoder(&buf)
	for i := 0; i < numMCUs; i++ {
		if err := common.EncodeDC(enc, dpcm.Y[i], tables.DCLuminanceCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeACRuns(enc, rle.Y[i], tables.ACLuminanceCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeDC(enc, dpcm.Cb[i], tables.DCChrominanceCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeACRuns(enc, rle.Cb[i], tables.ACChrominanceCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeDC(enc, dpcm.Cr[i], tables.DCChrominanceCodes); err != nil {
			return nil, err
		}
		if err := common.EncodeACRuns(enc, rle.Cr[i], tables.ACChrominanceCodes); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reconstructFromDCAC rebuilds quantized blocks from separated DC values
// and 63-entry zig-zag AC arrays, then dequantizes and inverse-transforms
// each component's plane.
func reconstructFromDCAC(result *PipelineResult, dcY, dcCb, dcCr []int, acY, acCb, acCr [][]int32) (*YCbCrRaster, error) {
	buildQuant := func(dc []int, ac [][]int32) [][64]int32 {
		out := make([][64]int32, len(dc))
		for i := range dc {
			var zz [64]int32
			zz[0] = int32(dc[i])
			copy(zz[1:], ac[i])
			out[i] = common.ZigZagUnscan(&zz)
		}
		return out
	}

	quantY := buildQuant(dcY, acY)
	quantCb := buildQuant(dcCb, acCb)
	quantCr := buildQuant(dcCr, acCr)

	yPlane, _ := reconstructFromQuantBlocks(quantY, &result.Quant.TableLuminance, result)
	cbPlane, _ := reconstructFromQuantBlocks(quantCb, &result.Quant.TableChrominance, result)
	crPlane, _ := reconstructFromQuantBlocks(quantCr, &result.Quant.TableChrominance, result)

	return cropRaster(yPlane, cbPlane, crPlane, result), nil
}

func reconstructFromQuantBlocks(quant [][64]int32, table *[64]int32, result *PipelineResult) ([]byte, []error) {
	spatial := make([]common.Block, len(quant))
	for i, q := range quant {
		coef := common.Dequantize(q, table)
		spatial[i] = common.InverseDCT(coef)
	}
	return planeFromSpatialBlocksWithWarnings(spatial, result)
}

func reconstructFromSpatialBlocks(dctBlocks []common.Block, result *PipelineResult) []byte {
	spatial := make([]common.Block, len(dctBlocks))
	for i, b := range dctBlocks {
		spatial[i] = common.InverseDCT(b)
	}
	plane, _ := planeFromSpatialBlocksWithWarnings(spatial, result)
	return plane
}

// planeFromSpatialBlocksWithWarnings reverses the encoder's level shift and
// clips to [0,255], assembling the padded plane in MCU order.
func planeFromSpatialBlocksWithWarnings(spatial []common.Block, result *PipelineResult) ([]byte, []error) {
	plane := make([]byte, result.PaddedWidth*result.PaddedHeight)
	var warnings []error
	idx := 0
	for mr := 0; mr < result.MCURows; mr++ {
		for mc := 0; mc < result.MCUCols; mc++ {
			b := spatial[idx]
			for yy := 0; yy < 8; yy++ {
				for xx := 0; xx < 8; xx++ {
					sample, outOfRange := common.LevelShiftAndClip(b[yy*8+xx])
					if outOfRange {
						warnings = append(warnings, common.Invariant(common.ErrSampleOutOfRange, "clipped reconstructed sample"))
					}
					plane[(mr*8+yy)*result.PaddedWidth+(mc*8+xx)] = sample
				}
			}
			idx++
		}
	}
	return plane, warnings
}

// blocksToPlane assembles a padded plane directly from raw-sample MCU
// blocks (the MCUs stage, which holds un-transformed pixel values).
func blocksToPlane(blocks []common.Block, result *PipelineResult) []byte {
	plane := make([]byte, result.PaddedWidth*result.PaddedHeight)
	idx := 0
	for mr := 0; mr < result.MCURows; mr++ {
		for mc := 0; mc < result.MCUCols; mc++ {
			b := blocks[idx]
			for yy := 0; yy < 8; yy++ {
				for xx := 0; xx < 8; xx++ {
					v := b[yy*8+xx]
					if v < 0 {
						v = 0
					}
					if v > 255 {
						v = 255
					}
					plane[(mr*8+yy)*result.PaddedWidth+(mc*8+xx)] = byte(v + 0.5)
				}
			}
			idx++
		}
	}
	return plane
}

// cropRaster crops three padded planes down to the original image
// dimensions.
func cropRaster(yPlane, cbPlane, crPlane []byte, result *PipelineResult) *YCbCrRaster {
	crop := func(plane []byte) []byte {
		out := make([]byte, result.Width*result.Height)
		for row := 0; row < result.Height; row++ {
			copy(out[row*result.Width:(row+1)*result.Width], plane[row*result.PaddedWidth:row*result.PaddedWidth+result.Width])
		}
		return out
	}
	return &YCbCrRaster{
		Y:      crop(yPlane),
		Cb:     crop(cbPlane),
		Cr:     crop(crPlane),
		Width:  result.Width,
		Height: result.Height,
	}
}

// rgbToRaster splits an interleaved RGB raster back into planar YCbCr.
func rgbToRaster(rgb []byte, width, height int) *YCbCrRaster {
	y := make([]byte, width*height)
	cb := make([]byte, width*height)
	cr := make([]byte, width*height)
	for i := 0; i < width*height; i++ {
		o := i * 3
		y[i], cb[i], cr[i] = common.RGBToYCbCr(rgb[o], rgb[o+1], rgb[o+2])
	}
	return &YCbCrRaster{Y: y, Cb: cb, Cr: cr, Width: width, Height: height}
}
