package scan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/camera"
)

// maxDecodeDim bounds the pixel area handed to the QR reader. Decoding runs
// inside a single loop tick, so sensor-resolution frames are downscaled to a
// canvas-sized buffer first.
const maxDecodeDim = 800

// DecodeFunc is the pure frame-to-payload step of the pipeline.
type DecodeFunc func(camera.Frame) (string, bool)

// DecodeFrame finds and decodes one QR code in a frame. It tries normal
// polarity first, then inverted (codes rendered light-on-dark), and reports
// no-match only after both fail. No state is retained between calls.
func DecodeFrame(frame camera.Frame) (string, bool) {
	if frame.Empty() || len(frame.Data) < frame.Width*frame.Height {
		return "", false
	}

	img := downscale(grayImage(frame))

	if text, err := decodeImage(img); err == nil {
		return text, true
	}

	if text, err := decodeImage(invert(img)); err == nil {
		return text, true
	}

	return "", false
}

func grayImage(frame camera.Frame) *image.Gray {
	return &image.Gray{
		Pix:    frame.Data,
		Stride: frame.Width,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
}

func decodeImage(img image.Image) (string, error) {
	source := gozxing.NewLuminanceSourceFromImage(img)
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return "", err
	}

	result, err := qrcode.NewQRCodeReader().Decode(bitmap, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		return "", err
	}

	return result.GetText(), nil
}

// downscale shrinks by an integer factor until both dimensions fit the decode
// ceiling. Nearest-neighbor is enough for binarized QR detection.
func downscale(img *image.Gray) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()

	factor := 1
	for w/factor > maxDecodeDim || h/factor > maxDecodeDim {
		factor++
	}
	if factor == 1 {
		return img
	}

	dw, dh := w/factor, h/factor
	out := image.NewGray(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			out.Pix[y*out.Stride+x] = img.Pix[y*factor*img.Stride+x*factor]
		}
	}

	return out
}

func invert(img *image.Gray) *image.Gray {
	out := image.NewGray(img.Rect)
	for i, p := range img.Pix {
		out.Pix[i] = 255 - p
	}

	return out
}
