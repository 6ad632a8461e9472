package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line.
type PrefixWriter struct {
	// A writer where all writes get sent to.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	midLine bool
}

// Write writes len(p) bytes from p to the underlying data stream and returns
// back the number of bytes written. The prefix is emitted lazily, right
// before the first byte of each line, and is not included in the returned
// byte count.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		chunk := p
		if eol := bytes.IndexByte(p, '\n'); eol != -1 {
			chunk = p[:eol+1]
		}

		n, err := w.Sink.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}

		if chunk[len(chunk)-1] == '\n' {
			w.midLine = false
		}
		p = p[len(chunk):]
	}

	return written, nil
}
