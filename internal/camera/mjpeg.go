package camera

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MJPEGDevice reads frames from an MJPEG-over-HTTP stream, the format phone
// camera apps and IP cameras publish (multipart/x-mixed-replace of JPEGs).
type MJPEGDevice struct {
	URL    string
	Client *http.Client

	// AllowInsecure disables the secure-transport check for plain-HTTP
	// streams on non-loopback hosts.
	AllowInsecure bool
}

func NewMJPEGDevice(streamURL string) *MJPEGDevice {
	return &MJPEGDevice{
		URL:    streamURL,
		Client: &http.Client{Timeout: 0}, // streaming response, no deadline
	}
}

func (d *MJPEGDevice) RequestStream(ctx context.Context, tier ConstraintTier) (StreamHandle, error) {
	parsed, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}

	if parsed.Scheme != "https" && !d.AllowInsecure && !isLoopback(parsed.Hostname()) {
		return nil, fmt.Errorf("%w: stream URL %q is plain http on a remote host", ErrInsecureContext, d.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: stream returned %v", ErrPermissionDenied, resp.Status)
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusConflict:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: stream returned %v", ErrDeviceBusy, resp.Status)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: stream returned %v", ErrDeviceNotFound, resp.Status)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: content type %q is not an MJPEG stream", ErrDeviceUnsupported, resp.Header.Get("Content-Type"))
	}

	reader := multipart.NewReader(resp.Body, params["boundary"])

	// Decode the first frame synchronously so acquisition can report the
	// realized resolution and reject streams below the tier's floor.
	first, err := readJPEGPart(reader)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnsupported, err)
	}
	if first.Width < tier.Width || first.Height < tier.Height {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: stream is %dx%d, tier %q wants at least %dx%d",
			ErrDeviceUnsupported, first.Width, first.Height, tier.Label, tier.Width, tier.Height)
	}

	h := &mjpegHandle{
		body:   resp.Body,
		width:  first.Width,
		height: first.Height,
		latest: first,
		seq:    1,
		done:   make(chan struct{}),
	}
	go h.readLoop(reader)

	return h, nil
}

type mjpegHandle struct {
	body   interface{ Close() error }
	width  int
	height int

	mu      sync.Mutex
	latest  Frame
	seq     uint64
	stalled bool
	closed  bool

	done chan struct{}
}

// readLoop keeps only the newest frame. Older frames are replaced, never
// queued (drop-old policy).
func (h *mjpegHandle) readLoop(reader *multipart.Reader) {
	defer close(h.done)

	for {
		frame, err := readJPEGPart(reader)
		if err != nil {
			h.mu.Lock()
			h.stalled = true
			h.mu.Unlock()
			return
		}

		h.mu.Lock()
		h.seq++
		frame.Seq = h.seq
		h.latest = frame
		h.mu.Unlock()
	}
}

func (h *mjpegHandle) Frame() (Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Frame{}, fmt.Errorf("stream closed")
	}
	if h.latest.Empty() {
		return Frame{}, fmt.Errorf("no frame received yet")
	}

	return h.latest, nil
}

func (h *mjpegHandle) Resolution() (int, int) {
	return h.width, h.height
}

func (h *mjpegHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return !h.closed && !h.stalled
}

func (h *mjpegHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	err := h.body.Close()

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
	}

	return err
}

func readJPEGPart(reader *multipart.Reader) (Frame, error) {
	part, err := reader.NextPart()
	if err != nil {
		return Frame{}, err
	}
	defer part.Close()

	img, err := jpeg.Decode(part)
	if err != nil {
		return Frame{}, fmt.Errorf("decoding jpeg part -> %w", err)
	}

	return grayFrame(img), nil
}

func grayFrame(img image.Image) Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	gray, ok := img.(*image.Gray)
	if !ok {
		gray = image.NewGray(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				gray.Set(x, y, img.At(x, y))
			}
		}
	}

	return Frame{
		Data:      gray.Pix,
		Width:     w,
		Height:    h,
		Timestamp: time.Now(),
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}
