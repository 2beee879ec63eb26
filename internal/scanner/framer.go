// Package scanner reads QR payloads from serial barcode readers
package scanner

// Frame delimiters
const (
	CR  byte = '\r'
	LF  byte = '\n'
	NUL byte = 0x00
)

// Framer reassembles a byte stream into delimiter-terminated frames. LF and
// NUL close a frame. CR closes a frame too, but the frame is held until the
// next byte so that a CR LF pair stays one frame however the stream is
// chunked.
type Framer struct {
	buf  []byte
	held []byte
}

// Feed appends p to the stream and returns the frames it completed, in
// order, delimiters included
func (f *Framer) Feed(p []byte) []string {
	var frames []string

	for _, b := range p {
		if f.held != nil {
			if b == LF {
				frames = append(frames, string(append(f.held, LF)))
				f.held = nil
				continue
			}
			frames = append(frames, string(f.held))
			f.held = nil
		}

		f.buf = append(f.buf, b)
		switch b {
		case LF, NUL:
			frames = append(frames, string(f.buf))
			f.buf = f.buf[:0]
		case CR:
			f.held = append([]byte(nil), f.buf...)
			f.buf = f.buf[:0]
		}
	}

	return frames
}

// Pending reports whether a CR terminated frame is being held
func (f *Framer) Pending() bool {
	return f.held != nil
}

// Flush releases the held CR frame
func (f *Framer) Flush() (string, bool) {
	if f.held == nil {
		return "", false
	}
	frame := string(f.held)
	f.held = nil
	return frame, true
}

// Buffered returns the bytes of the unterminated frame in progress
func (f *Framer) Buffered() int {
	return len(f.buf)
}
