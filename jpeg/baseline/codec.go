package baseline

import (
	"github.com/cocosip/go-jpeg/codec"
	"github.com/cocosip/go-jpeg/jpeg/common"
)

var _ codec.Codec = (*Codec)(nil)

// Codec adapts the baseline sequential 4:4:4 JPEG encoder/decoder to the
// generic codec.Codec interface. It has no quality knob and no options:
// the fixed Annex-K tables are the only tables it ever emits or expects.
type Codec struct{}

// New creates the baseline JPEG codec.
func New() *Codec { return &Codec{} }

// UID identifies this codec for codec.Register/codec.Get.
func (c *Codec) UID() string { return "1.2.840.10008.1.2.4.50" }

// Name returns a human-readable codec name.
func (c *Codec) Name() string { return "jpeg-baseline" }

// Encode encodes params.PixelData (an interleaved 3-component RGB raster)
// as a baseline sequential JPEG byte stream.
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	if params.Components != 3 {
		return nil, common.Unsupported(common.ErrUnsupportedComponents, "only 3-component frames are supported")
	}
	if params.BitDepth != 0 && params.BitDepth != 8 {
		return nil, common.Unsupported(common.ErrUnsupportedFrameType, "only 8-bit samples are supported")
	}
	return Encode(params.PixelData, params.Width, params.Height)
}

// Decode decodes a baseline sequential JPEG byte stream back to an
// interleaved 3-component RGB raster.
func (c *Codec) Decode(data []byte) (*codec.DecodeResult, error) {
	rgb, width, height, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &codec.DecodeResult{
		PixelData:  rgb,
		Width:      width,
		Height:     height,
		Components: 3,
		BitDepth:   8,
	}, nil
}

func init() {
	codec.Register(New())
}
