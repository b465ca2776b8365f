package camera

import "time"

// Frame is one grayscale video frame. Data holds one byte per pixel in row
// order (stride == Width). Frames are shared by reference between the device
// reader and the scan loop; receivers must not modify Data.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time

	// Seq is assigned by the stream reader, monotonically increasing.
	// Used to tell "no new frame yet" apart from a stalled stream.
	Seq uint64
}

func (f Frame) Empty() bool {
	return len(f.Data) == 0 || f.Width == 0 || f.Height == 0
}
