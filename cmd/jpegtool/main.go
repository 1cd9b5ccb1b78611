// Command jpegtool compresses a PNG image with the baseline sequential
// JPEG codec, optionally stopping at an intermediate pipeline stage for
// inspection, and optionally decodes the result back to a PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cocosip/go-jpeg/jpeg/common"
	"github.com/cocosip/go-jpeg/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	input := flag.String("i", "test-img/monkey.png", "input PNG file path")
	output := flag.String("o", "out.jpg", "output JPEG file path")
	stage := flag.String("stage", string(pipeline.StageJPEG), "pipeline stage at which to stop encoding")
	reconstructed := flag.String("r", "rec.png", "output file path for the reconstructed image")
	verbose := flag.Bool("v", false, "enable verbose output")
	noDecode := flag.Bool("no-decode", false, "skip decoding/reconstruction")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	stopAt := pipeline.StageTag(*stage)
	if !validStage(stopAt) {
		logger.Error("unknown pipeline stage", "stage", *stage, "valid", pipeline.AllStages)
		return 1
	}

	f, err := os.Open(*input)
	if err != nil {
		logger.Error("could not open input file", "path", *input, "error", err)
		return 1
	}
	img, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		logger.Error("could not decode input image", "path", *input, "error", err)
		return 1
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	logger.Debug("image loaded", "path", *input, "width", width, "height", height)

	y, cb, cr := splitYCbCr(img)

	orch := pipeline.NewOrchestrator()
	result, err := orch.Encode(y, cb, cr, width, height, stopAt)
	if err != nil {
		logger.Error("encode failed", "error", err, "kind", errorKind(err))
		return 1
	}
	logger = logger.With("run_id", result.RunID.String())

	if result.JPEG != nil {
		if err := os.WriteFile(*output, result.JPEG.Bytes, 0o644); err != nil {
			logger.Error("could not write JPEG output", "path", *output, "error", err)
			return 1
		}
		printStats(result.JPEG.Bytes, width, height)
	} else {
		logger.Info("stopped before the JPEG stage; no compressed file written", "stage", stopAt)
	}

	if *noDecode {
		return 0
	}

	raster, err := orch.Decode(result, stopAt)
	if err != nil {
		logger.Error("decode failed", "error", err, "kind", errorKind(err))
		return 1
	}

	rec := rasterToImage(raster)
	outF, err := os.Create(*reconstructed)
	if err != nil {
		logger.Error("could not create reconstructed output file", "path", *reconstructed, "error", err)
		return 1
	}
	defer func() { _ = outF.Close() }()
	if err := png.Encode(outF, rec); err != nil {
		logger.Error("could not encode reconstructed PNG", "path", *reconstructed, "error", err)
		return 1
	}
	logger.Info("reconstructed image saved", "path", *reconstructed)

	return 0
}

func validStage(tag pipeline.StageTag) bool {
	for _, s := range pipeline.AllStages {
		if s == tag {
			return true
		}
	}
	return false
}

// splitYCbCr converts an arbitrary image.Image to three planar YCbCr byte
// channels, row-major at the image's own bounds.
func splitYCbCr(img image.Image) (y, cb, cr []byte) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	y = make([]byte, w*h)
	cb = make([]byte, w*h)
	cr = make([]byte, w*h)

	i := 0
	for row := bounds.Min.Y; row < bounds.Max.Y; row++ {
		for col := bounds.Min.X; col < bounds.Max.X; col++ {
			r, g, b, _ := img.At(col, row).RGBA()
			yy, cbb, crr := common.RGBToYCbCr(byte(r>>8), byte(g>>8), byte(b>>8))
			y[i], cb[i], cr[i] = yy, cbb, crr
			i++
		}
	}
	return y, cb, cr
}

// rasterToImage converts a reconstructed planar YCbCr raster back to an
// RGBA image ready for PNG encoding.
func rasterToImage(raster *pipeline.YCbCrRaster) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, raster.Width, raster.Height))
	i := 0
	for row := 0; row < raster.Height; row++ {
		for col := 0; col < raster.Width; col++ {
			r, g, b := common.YCbCrToRGB(raster.Y[i], raster.Cb[i], raster.Cr[i])
			img.SetRGBA(col, row, color.RGBA{R: r, G: g, B: b, A: 0xFF})
			i++
		}
	}
	return img
}

// printStats reports the compression ratio using a locale-aware number
// formatter, matching the kind of summary original_source/main.py logs
// after a successful encode.
func printStats(jpegBytes []byte, width, height int) {
	p := message.NewPrinter(language.English)
	rawSize := width * height * 3
	ratio := float64(rawSize) / float64(len(jpegBytes))
	p.Printf("encoded %d bytes from %d raw bytes (%.2fx compression)\n", len(jpegBytes), rawSize, ratio)
}

func errorKind(err error) string {
	var ce *common.CodecError
	if ok := asCodecError(err, &ce); ok {
		return ce.Kind().String()
	}
	return "unknown"
}

func asCodecError(err error, target **common.CodecError) bool {
	for err != nil {
		if ce, ok := err.(*common.CodecError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
