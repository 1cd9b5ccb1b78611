package baseline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cocosip/go-jpeg/jpeg/common"
)

func solidImage(width, height int, r, g, b byte) []byte {
	px := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		px[i*3+0], px[i*3+1], px[i*3+2] = r, g, b
	}
	return px
}

func gradientImage(width, height int) []byte {
	px := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			o := (y*width + x) * 3
			px[o+0] = byte(x * 4)
			px[o+1] = byte(y * 4)
			px[o+2] = byte((x + y) * 2)
		}
	}
	return px
}

func maxAbsDiff(a, b []byte) int {
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

// roundTrip encodes and decodes px and checks the reconstruction error.
// wantClipWarnings says whether the decoder is expected to report clipped
// out-of-range samples (saturated inputs such as pure white overshoot 255
// after quantization); when false, no warnings at all are allowed.
func roundTrip(t *testing.T, width, height int, px []byte, maxErr int, wantClipWarnings bool) {
	t.Helper()

	jpegData, err := Encode(px, width, height)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, w, h, warnings, err := Decode(jpegData)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !wantClipWarnings && len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if wantClipWarnings {
		if len(warnings) == 0 {
			t.Error("expected clipped-sample warnings, got none")
		}
		for _, wrn := range warnings {
			if !errors.Is(wrn, common.ErrSampleOutOfRange) {
				t.Errorf("unexpected warning: %v", wrn)
			}
		}
	}
	if w != width || h != height {
		t.Fatalf("dimensions mismatch: got %dx%d, want %dx%d", w, h, width, height)
	}
	if len(decoded) != len(px) {
		t.Fatalf("data length mismatch: got %d, want %d", len(decoded), len(px))
	}

	if d := maxAbsDiff(px, decoded); d > maxErr {
		t.Errorf("maximum pixel error %d exceeds %d", d, maxErr)
	}
}

func TestRoundTripAllBlack8x8(t *testing.T) {
	roundTrip(t, 8, 8, solidImage(8, 8, 0, 0, 0), 2, false)
}

func TestRoundTripAllWhite8x8(t *testing.T) {
	// Y=255 level-shifts to 127; the DC term 127*8=1016 quantizes to
	// 1016/16=63.5, which rounds half away from zero to 64 and reconstructs
	// as 128+128=256, so every sample is clipped to 255 and reported.
	roundTrip(t, 8, 8, solidImage(8, 8, 255, 255, 255), 2, true)
}

func TestRoundTripUniformGray16x16(t *testing.T) {
	roundTrip(t, 16, 16, solidImage(16, 16, 128, 128, 128), 2, false)
}

func TestRoundTripHalfBlackHalfWhite8x16(t *testing.T) {
	width, height := 8, 16
	px := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		v := byte(0)
		if y >= height/2 {
			v = 255
		}
		for x := 0; x < width; x++ {
			o := (y*width + x) * 3
			px[o+0], px[o+1], px[o+2] = v, v, v
		}
	}
	roundTrip(t, width, height, px, 30, true)
}

func TestRoundTripNonMultipleOf8WithPadding(t *testing.T) {
	roundTrip(t, 23, 17, gradientImage(23, 17), 40, false)
}

func TestRoundTripGradientRGB(t *testing.T) {
	width, height := 64, 64
	roundTrip(t, width, height, gradientImage(width, height), 40, false)
}

func TestEncodeInvalidParameters(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		components int
	}{
		{"invalid width", 0, 64, 3},
		{"invalid height", 64, 0, 3},
		{"wrong buffer size", 64, 64, 1}, // buffer sized for 1 component, not 3
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px := make([]byte, 64*64*tt.components)
			if _, err := Encode(px, tt.width, tt.height); err == nil {
				t.Error("Encode() expected error, got nil")
			}
		})
	}
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	jpegData, err := Encode(gradientImage(16, 16), 16, 16)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Strip the trailing EOI marker.
	truncated := jpegData[:len(jpegData)-2]
	if _, _, _, _, err := Decode(truncated); err == nil {
		t.Error("Decode of a stream missing EOI should fail")
	}
}

func TestDecodeRejectsMissingSOI(t *testing.T) {
	jpegData, err := Encode(gradientImage(16, 16), 16, 16)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	corrupted := bytes.Clone(jpegData)
	corrupted[0], corrupted[1] = 0xFF, 0xD0 // replace SOI with RST0

	if _, _, _, _, err := Decode(corrupted); err == nil {
		t.Error("Decode of a stream without SOI should fail")
	}
}

func TestDecodeRejectsBadQuantTableID(t *testing.T) {
	jpegData, err := Encode(gradientImage(16, 16), 16, 16)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	corrupted := bytes.Clone(jpegData)
	// The first DQT segment's table-id byte sits right after the 2-byte
	// marker and 2-byte length field.
	dqtTableIDOffset := bytes.Index(corrupted, []byte{0xFF, 0xDB}) + 4
	corrupted[dqtTableIDOffset] = 2

	if _, _, _, _, err := Decode(corrupted); err == nil {
		t.Error("Decode with a DQT table id of 2 should fail")
	}
}

func TestDecodeRejectsNonThreeComponents(t *testing.T) {
	jpegData, err := Encode(gradientImage(16, 16), 16, 16)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	corrupted := bytes.Clone(jpegData)
	sof0Offset := bytes.Index(corrupted, []byte{0xFF, 0xC0})
	numComponentsOffset := sof0Offset + 4 + 5 // marker(2) + length(2) + precision/height/width(5)
	corrupted[numComponentsOffset] = 1

	if _, _, _, _, err := Decode(corrupted); err == nil {
		t.Error("Decode with a declared component count of 1 should fail")
	}
}

func BenchmarkEncode(b *testing.B) {
	width, height := 512, 512
	px := gradientImage(width, height)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(px, width, height); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	width, height := 512, 512
	jpegData, err := Encode(gradientImage(width, height), width, height)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, _, err := Decode(jpegData); err != nil {
			b.Fatal(err)
		}
	}
}
