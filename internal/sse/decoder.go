// Package sse decodes the backend's server-sent-event line protocol.
//
// The wire format is a byte stream of lines, each meaningful line shaped
// as "data: <payload>". The decoder is purely incremental: bytes may
// arrive split at arbitrary points (mid-line, mid-rune) and payloads are
// surfaced only once their terminating newline has arrived. It knows
// nothing about the payload's JSON shape; event-union parsing lives with
// the resource clients.
package sse

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"strings"
)

// dataPrefix marks a payload line. A single optional space after the
// colon is tolerated, per the SSE convention.
const dataPrefix = "data:"

// readChunkSize is the read granularity for the stream adapter. Small
// enough to surface tokens promptly, large enough to not thrash reads.
const readChunkSize = 4096

// Decoder accumulates raw bytes and emits complete "data:" payloads.
//
// Non-data lines (blank separators, comments, "event:" names) are
// ignored. A trailing buffer that never receives its newline is simply
// never emitted; the backend contract treats a stream that ends mid-line
// as having discarded that frame.
//
// The zero value is ready to use. Not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// Feed appends p to the internal buffer and returns the payloads of all
// data lines completed by this chunk, in arrival order.
func (d *Decoder) Feed(p []byte) []string {
	d.buf = append(d.buf, p...)

	var payloads []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return payloads
		}
		line := string(d.buf[:i])
		d.buf = d.buf[i+1:]

		if payload, ok := dataPayload(line); ok {
			payloads = append(payloads, payload)
		}
	}
}

// Buffered reports how many bytes are held waiting for a newline.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// dataPayload extracts the payload from one line.
// Returns ok=false for anything that is not a data line.
func dataPayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(line, dataPrefix)
	payload = strings.TrimPrefix(payload, " ")
	if payload == "" {
		return "", false
	}
	return payload, true
}

// Frames adapts an io.Reader into a sequence of data payloads.
//
// The sequence ends on EOF (a non-terminated trailing line is discarded)
// or on the first read error, which is yielded with an empty payload.
func Frames(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var dec Decoder
		chunk := make([]byte, readChunkSize)

		for {
			n, err := r.Read(chunk)
			if n > 0 {
				for _, payload := range dec.Feed(chunk[:n]) {
					if !yield(payload, nil) {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}
		}
	}
}
