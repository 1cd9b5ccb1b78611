// Package pipeline exposes the baseline JPEG encoder as a sequence of
// independently inspectable stages: MCU partitioning, DCT, quantization,
// zig-zag/DC-AC split, DPCM, RLE, per-component Huffman coding, scan
// interleaving, and marker framing. It exists so a caller (chiefly
// cmd/jpegtool) can stop encoding at an intermediate stage for inspection,
// or resume decoding from one, without re-deriving the whole bitstream.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/cocosip/go-jpeg/jpeg/baseline"
	"github.com/cocosip/go-jpeg/jpeg/common"
)

// StageTag names a point in the encoding pipeline where encoding can stop
// or decoding can resume. Values match the stage names of the reference
// implementation this pipeline was distilled from.
type StageTag string

const (
	StageMCUs        StageTag = "MCUs"
	StageDCT         StageTag = "DCT"
	StageQuant       StageTag = "quant"
	StageZigzag      StageTag = "zigzag"
	StageDPCM        StageTag = "DPCM"
	StageRLE         StageTag = "RLE"
	StageDC          StageTag = "DC"
	StageAC          StageTag = "AC"
	StageInterleaver StageTag = "Interleaver"
	StageJPEG        StageTag = "jpeg"
)

// AllStages lists every stage in encoding order.
var AllStages = []StageTag{
	StageMCUs, StageDCT, StageQuant, StageZigzag, StageDPCM, StageRLE,
	StageDC, StageAC, StageInterleaver, StageJPEG,
}

func stageIndex(tag StageTag) int {
	for i, s := range AllStages {
		if s == tag {
			return i
		}
	}
	return -1
}

// MCUStage holds the image after MCU partitioning: one level-unshifted
// 8x8 spatial block per component per MCU (raw 0..255 sample values), in
// row-major MCU order, edge-padded to a multiple of 8 in each dimension.
type MCUStage struct {
	Y, Cb, Cr []common.Block
}

// DCTStage holds the forward-DCT coefficients of each MCU block.
type DCTStage struct {
	Y, Cb, Cr []common.Block
}

// QuantStage holds the quantized coefficients of each MCU block, plus the
// two fixed quantization tables used to produce them.
type QuantStage struct {
	Y, Cb, Cr        [][64]int32
	TableLuminance   [64]int32
	TableChrominance [64]int32
}

// ZigzagStage holds each block's DC coefficient and its 63 zig-zag-ordered
// AC coefficients, split apart but not yet DPCM/RLE coded.
type ZigzagStage struct {
	DCY, DCCb, DCCr []int
	ACY, ACCb, ACCr [][]int32 // each inner slice has length 63
}

// DPCMStage holds the DPCM-coded DC coefficient differences per component.
type DPCMStage struct {
	Y, Cb, Cr []int
}

// RLEStage holds the run-length-coded AC coefficients per component.
type RLEStage struct {
	Y, Cb, Cr [][]common.RunValue
}

// DCStage holds the Huffman-coded DC difference bitstream for each
// component, built independently of the other components (not yet
// interleaved, and byte-stuffed/padded on its own).
type DCStage struct {
	Y, Cb, Cr []byte
}

// ACStage holds the Huffman-coded AC run bitstream for each component,
// built independently of the other components (not yet interleaved).
type ACStage struct {
	Y, Cb, Cr []byte
}

// InterleaverStage holds the final entropy-coded scan: one Huffman
// bitstream carrying all three components interleaved per MCU in Y, Cb,
// Cr order, byte-stuffed, ready to be wrapped in JFIF markers.
type InterleaverStage struct {
	Bitstream []byte
}

// JPEGStage holds the complete framed JFIF/JPEG byte stream.
type JPEGStage struct {
	Bytes []byte
}

// PipelineResult accumulates the output of every pipeline stage run so
// far. A stage's field is nil until that stage has executed; fields are
// never cleared once set, so decoding from a later stage can always fall
// back to an earlier stage's structured data instead of re-parsing bytes.
type PipelineResult struct {
	RunID uuid.UUID

	Width, Height             int
	PaddedWidth, PaddedHeight int
	MCUCols, MCURows          int

	Tables baseline.Tables

	MCUs        *MCUStage
	DCT         *DCTStage
	Quant       *QuantStage
	Zigzag      *ZigzagStage
	DPCM        *DPCMStage
	RLE         *RLEStage
	DC          *DCStage
	AC          *ACStage
	Interleaver *InterleaverStage
	JPEG        *JPEGStage
}

// YCbCrRaster is a reconstructed image in planar YCbCr form, one byte per
// sample per plane, row-major at the original (unpadded) dimensions.
type YCbCrRaster struct {
	Y, Cb, Cr     []byte
	Width, Height int
}
