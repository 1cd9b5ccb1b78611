package pipeline

import (
	"testing"

	"github.com/cocosip/go-jpeg/jpeg/baseline"
	"github.com/cocosip/go-jpeg/jpeg/common"
)

func gradientYCbCr(width, height int) (y, cb, cr []byte) {
	y = make([]byte, width*height)
	cb = make([]byte, width*height)
	cr = make([]byte, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			i := row*width + col
			r := byte(col * 4)
			g := byte(row * 4)
			b := byte((col + row) * 2)
			y[i], cb[i], cr[i] = common.RGBToYCbCr(r, g, b)
		}
	}
	return y, cb, cr
}

func maxAbsDiffBytes(a, b []byte) int {
	max := 0
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}

func TestEncodeStopsAtRequestedStage(t *testing.T) {
	y, cb, cr := gradientYCbCr(16, 16)
	orch := NewOrchestrator()

	cases := []struct {
		stop    StageTag
		present []StageTag
		absent  []StageTag
	}{
		{StageMCUs, []StageTag{StageMCUs}, []StageTag{StageDCT, StageQuant, StageJPEG}},
		{StageQuant, []StageTag{StageMCUs, StageDCT, StageQuant}, []StageTag{StageZigzag, StageDC, StageJPEG}},
		{StageRLE, []StageTag{StageQuant, StageZigzag, StageDPCM, StageRLE}, []StageTag{StageDC, StageAC, StageJPEG}},
	}

	for _, tc := range cases {
		result, err := orch.Encode(y, cb, cr, 16, 16, tc.stop)
		if err != nil {
			t.Fatalf("Encode(stop=%s) failed: %v", tc.stop, err)
		}
		if stageField(result, tc.stop) == false {
			t.Errorf("stage %s should be populated", tc.stop)
		}
		for _, present := range tc.present {
			if !stageField(result, present) {
				t.Errorf("stopping at %s: stage %s should be populated", tc.stop, present)
			}
		}
		for _, absent := range tc.absent {
			if stageField(result, absent) {
				t.Errorf("stopping at %s: stage %s should not be populated", tc.stop, absent)
			}
		}
	}
}

// stageField reports whether the named stage's field is non-nil.
func stageField(r *PipelineResult, tag StageTag) bool {
	switch tag {
	case StageMCUs:
		return r.MCUs != nil
	case StageDCT:
		return r.DCT != nil
	case StageQuant:
		return r.Quant != nil
	case StageZigzag:
		return r.Zigzag != nil
	case StageDPCM:
		return r.DPCM != nil
	case StageRLE:
		return r.RLE != nil
	case StageDC:
		return r.DC != nil
	case StageAC:
		return r.AC != nil
	case StageInterleaver:
		return r.Interleaver != nil
	case StageJPEG:
		return r.JPEG != nil
	}
	return false
}

func TestStageJPEGMatchesBaselineEncodeDirectly(t *testing.T) {
	width, height := 32, 24
	y, cb, cr := gradientYCbCr(width, height)

	orch := NewOrchestrator()
	result, err := orch.Encode(y, cb, cr, width, height, StageJPEG)
	if err != nil {
		t.Fatalf("pipeline Encode failed: %v", err)
	}

	px := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		r, g, b := common.YCbCrToRGB(y[i], cb[i], cr[i])
		px[i*3+0], px[i*3+1], px[i*3+2] = r, g, b
	}
	direct, err := baseline.Encode(px, width, height)
	if err != nil {
		t.Fatalf("baseline.Encode failed: %v", err)
	}

	if len(result.JPEG.Bytes) != len(direct) {
		t.Fatalf("length mismatch: pipeline %d, direct %d", len(result.JPEG.Bytes), len(direct))
	}
	for i := range direct {
		if result.JPEG.Bytes[i] != direct[i] {
			t.Fatalf("byte mismatch at offset %d: pipeline %#x, direct %#x", i, result.JPEG.Bytes[i], direct[i])
		}
	}
}

func TestDecodeFromEachStageReconstructsWithinTolerance(t *testing.T) {
	width, height := 24, 16
	y, cb, cr := gradientYCbCr(width, height)
	orch := NewOrchestrator()

	tolerances := map[StageTag]int{
		StageMCUs:        0,
		StageDCT:         2,
		StageQuant:       40,
		StageZigzag:      40,
		StageDPCM:        40,
		StageRLE:         40,
		StageDC:          40,
		StageAC:          40,
		StageInterleaver: 40,
		StageJPEG:        40,
	}

	for _, stage := range AllStages {
		result, err := orch.Encode(y, cb, cr, width, height, stage)
		if err != nil {
			t.Fatalf("Encode(stop=%s) failed: %v", stage, err)
		}
		raster, err := orch.Decode(result, stage)
		if err != nil {
			t.Fatalf("Decode(resume=%s) failed: %v", stage, err)
		}
		if raster.Width != width || raster.Height != height {
			t.Fatalf("stage %s: dimensions mismatch got %dx%d want %dx%d", stage, raster.Width, raster.Height, width, height)
		}
		if d := maxAbsDiffBytes(y, raster.Y); d > tolerances[stage] {
			t.Errorf("stage %s: Y channel error %d exceeds tolerance %d", stage, d, tolerances[stage])
		}
	}
}

func TestDecodeReportsStageInputMissing(t *testing.T) {
	width, height := 16, 16
	y, cb, cr := gradientYCbCr(width, height)
	orch := NewOrchestrator()

	result, err := orch.Encode(y, cb, cr, width, height, StageQuant)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := orch.Decode(result, StageAC); err == nil {
		t.Fatal("expected Stage Input Missing error when resuming from an unreached stage")
	} else if ce, ok := err.(*common.CodecError); !ok || ce.Kind() != common.KindStageInputMissing {
		t.Errorf("expected a KindStageInputMissing CodecError, got %v", err)
	}
}

func TestEncodeRejectsUnknownStage(t *testing.T) {
	width, height := 8, 8
	y, cb, cr := gradientYCbCr(width, height)
	orch := NewOrchestrator()

	if _, err := orch.Encode(y, cb, cr, width, height, StageTag("bogus")); err == nil {
		t.Fatal("expected an error for an unrecognized stage tag")
	}
}

func TestEncodeRejectsMismatchedBuffers(t *testing.T) {
	orch := NewOrchestrator()
	y := make([]byte, 64)
	cb := make([]byte, 32) // deliberately short
	cr := make([]byte, 64)

	if _, err := orch.Encode(y, cb, cr, 8, 8, StageJPEG); err == nil {
		t.Fatal("expected an error for mismatched channel buffer lengths")
	}
}

func TestEachEncodeResultHasAUniqueRunID(t *testing.T) {
	width, height := 8, 8
	y, cb, cr := gradientYCbCr(width, height)
	orch := NewOrchestrator()

	first, err := orch.Encode(y, cb, cr, width, height, StageJPEG)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := orch.Encode(y, cb, cr, width, height, StageJPEG)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if first.RunID == second.RunID {
		t.Error("two separate Encode calls should not share a RunID")
	}
	// RunID must not influence the encoded bytes.
	if len(first.JPEG.Bytes) != len(second.JPEG.Bytes) {
		t.Fatal("encoded length differs between otherwise-identical runs")
	}
	for i := range first.JPEG.Bytes {
		if first.JPEG.Bytes[i] != second.JPEG.Bytes[i] {
			t.Fatalf("byte mismatch at offset %d despite identical input pixels", i)
		}
	}
}
