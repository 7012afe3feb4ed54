package audio

import (
	"errors"
	"io"
)

var errNegativeOffset = errors.New("audio: negative seek offset")

// writeSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks back to
// patch chunk sizes once all samples are written.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, len(w.buf), 2*end)
			copy(grown, w.buf)
			w.buf = grown
		}
		w.buf = w.buf[:end]
	}
	copy(w.buf[w.pos:], p)
	w.pos = end

	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(w.pos)
	case io.SeekEnd:
		base = int64(len(w.buf))
	default:
		return 0, errors.New("audio: invalid whence")
	}

	next := base + offset
	if next < 0 {
		return 0, errNegativeOffset
	}
	if next > int64(len(w.buf)) {
		// Writes past the end zero-fill the gap, like a file.
		w.buf = append(w.buf, make([]byte, int(next)-len(w.buf))...)
	}
	w.pos = int(next)

	return next, nil
}

// Bytes returns the buffered contents.
func (w *writeSeeker) Bytes() []byte {
	return w.buf
}
