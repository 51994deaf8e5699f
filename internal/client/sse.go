package client

import (
	"bufio"
	"bytes"
	"io"
)

// maxFrame bounds a single SSE line
const maxFrame = 1 << 20

// frameReader reassembles server sent events from a byte stream that may be split anywhere
// only data fields are kept; comments, event names, ids and retry hints are ignored
type frameReader struct {
	sc   *bufio.Scanner
	data bytes.Buffer
}

func newFrameReader(r io.Reader) *frameReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxFrame)
	sc.Split(scanLines)
	return &frameReader{sc: sc}
}

// Next returns the data of the next event
// io.EOF means the stream ended cleanly on an event boundary; a trailing event without
// its terminating blank line is discarded as incomplete
func (f *frameReader) Next() ([]byte, error) {
	f.data.Reset()
	seen := false
	for f.sc.Scan() {
		line := f.sc.Bytes()
		if len(line) == 0 {
			if seen {
				out := make([]byte, f.data.Len())
				copy(out, f.data.Bytes())
				return out, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		if string(field) != "data" {
			continue
		}
		if seen {
			f.data.WriteByte('\n')
		}
		f.data.Write(value)
		seen = true
	}
	if err := f.sc.Err(); err != nil {
		return nil, err
	}
	if seen {
		return nil, io.ErrUnexpectedEOF
	}
	return nil, io.EOF
}

// scanLines splits on \n, \r\n or a lone \r
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// need one more byte to tell \r from \r\n
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
