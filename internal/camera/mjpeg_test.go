package camera

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mjpegServer serves the given number of JPEG frames as one MJPEG response,
// then ends the stream.
func mjpegServer(t *testing.T, width, height, frames int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := multipart.NewWriter(w)
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+writer.Boundary())
		w.WriteHeader(http.StatusOK)

		img := image.NewGray(image.Rect(0, 0, width, height))
		for i := 0; i < frames; i++ {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, nil); err != nil {
				return
			}

			part, err := writer.CreatePart(textproto.MIMEHeader{
				"Content-Type": []string{"image/jpeg"},
			})
			if err != nil {
				return
			}
			if _, err = part.Write(buf.Bytes()); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		_ = writer.Close()
	}))
}

func statusServer(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
}

func TestMJPEGDevice_RequestStream(t *testing.T) {
	tier := ConstraintTier{Label: "any-min", Width: 320, Height: 240}

	t.Run("acquires a loopback stream and reports its resolution", func(t *testing.T) {
		srv := mjpegServer(t, 640, 480, 3)
		defer srv.Close()

		device := NewMJPEGDevice(srv.URL)
		handle, err := device.RequestStream(context.Background(), tier)
		require.NoError(t, err)
		defer handle.Close()

		w, h := handle.Resolution()
		assert.Equal(t, 640, w)
		assert.Equal(t, 480, h)
		assert.True(t, handle.Playing())

		frame, err := handle.Frame()
		require.NoError(t, err)
		assert.Equal(t, 640, frame.Width)
		assert.Len(t, frame.Data, 640*480)
	})

	t.Run("rejects a stream below the tier floor", func(t *testing.T) {
		srv := mjpegServer(t, 160, 120, 1)
		defer srv.Close()

		device := NewMJPEGDevice(srv.URL)
		_, err := device.RequestStream(context.Background(), tier)

		assert.ErrorIs(t, err, ErrDeviceUnsupported)
	})

	t.Run("maps authentication failures to permission denied", func(t *testing.T) {
		srv := statusServer(http.StatusUnauthorized)
		defer srv.Close()

		device := NewMJPEGDevice(srv.URL)
		_, err := device.RequestStream(context.Background(), tier)

		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("maps unavailability to device busy", func(t *testing.T) {
		srv := statusServer(http.StatusServiceUnavailable)
		defer srv.Close()

		device := NewMJPEGDevice(srv.URL)
		_, err := device.RequestStream(context.Background(), tier)

		assert.ErrorIs(t, err, ErrDeviceBusy)
	})

	t.Run("maps other failures to device not found", func(t *testing.T) {
		srv := statusServer(http.StatusNotFound)
		defer srv.Close()

		device := NewMJPEGDevice(srv.URL)
		_, err := device.RequestStream(context.Background(), tier)

		assert.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("rejects a non-multipart response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		device := NewMJPEGDevice(srv.URL)
		_, err := device.RequestStream(context.Background(), tier)

		assert.ErrorIs(t, err, ErrDeviceUnsupported)
	})

	t.Run("rejects plain http on a remote host", func(t *testing.T) {
		device := NewMJPEGDevice("http://camera.example.com/stream")

		_, err := device.RequestStream(context.Background(), tier)

		assert.ErrorIs(t, err, ErrInsecureContext)
	})

	t.Run("AllowInsecure overrides the transport check", func(t *testing.T) {
		device := NewMJPEGDevice("http://192.0.2.1:1/stream")
		device.AllowInsecure = true

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		// The check is passed; the request itself fails to connect.
		_, err := device.RequestStream(ctx, tier)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInsecureContext)
	})
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("localhost"))
	assert.True(t, isLoopback("127.0.0.1"))
	assert.True(t, isLoopback("::1"))
	assert.False(t, isLoopback("camera.example.com"))
	assert.False(t, isLoopback("10.0.0.4"))
}
