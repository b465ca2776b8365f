package scan

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	goqrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/camera"
)

// qrFrame renders a QR code for the payload and wraps it as a camera frame.
func qrFrame(t *testing.T, payload string) camera.Frame {
	t.Helper()

	data, err := goqrcode.Encode(payload, goqrcode.Medium, 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}

	return camera.Frame{
		Data:      gray.Pix,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Timestamp: time.Now(),
	}
}

func TestDecodeFrame(t *testing.T) {
	t.Run("decodes a ticket payload", func(t *testing.T) {
		payload, err := Encode("att-1", "evt-1", "Jane Doe")
		require.NoError(t, err)

		frame := qrFrame(t, payload)

		got, ok := DecodeFrame(frame)

		require.True(t, ok)
		assert.Equal(t, payload, got)
	})

	t.Run("decodes an inverted code", func(t *testing.T) {
		frame := qrFrame(t, "STF-42")
		for i, p := range frame.Data {
			frame.Data[i] = 255 - p
		}

		got, ok := DecodeFrame(frame)

		require.True(t, ok)
		assert.Equal(t, "STF-42", got)
	})

	t.Run("empty frame reports no match", func(t *testing.T) {
		_, ok := DecodeFrame(camera.Frame{})

		assert.False(t, ok)
	})

	t.Run("blank frame reports no match", func(t *testing.T) {
		frame := camera.Frame{
			Data:   make([]byte, 256*256),
			Width:  256,
			Height: 256,
		}

		_, ok := DecodeFrame(frame)

		assert.False(t, ok)
	})

	t.Run("truncated pixel buffer reports no match", func(t *testing.T) {
		frame := camera.Frame{
			Data:   make([]byte, 10),
			Width:  256,
			Height: 256,
		}

		_, ok := DecodeFrame(frame)

		assert.False(t, ok)
	})
}

func TestDownscale(t *testing.T) {
	t.Run("leaves small frames untouched", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 640, 480))

		out := downscale(img)

		assert.Same(t, img, out)
	})

	t.Run("shrinks oversized frames under the ceiling", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 1920, 1080))

		out := downscale(img)

		assert.LessOrEqual(t, out.Rect.Dx(), maxDecodeDim)
		assert.LessOrEqual(t, out.Rect.Dy(), maxDecodeDim)
	})
}
