package text

import "bytes"

// Splitter accumulates raw bytes and cuts them into lines on '\n'.
// A '\r' directly before the '\n' is part of the terminator. Bytes after the
// last terminator are kept until the next Feed.
//
// A Splitter is not safe for concurrent use; it belongs to the I/O loop.
type Splitter struct {
	partial []byte
}

// Feed appends b and returns every line it completes, in order.
func (s *Splitter) Feed(b []byte) []Line {
	if len(b) == 0 {
		return nil
	}

	// The retained partial has no '\n', so only the new bytes need scanning.
	scanFrom := len(s.partial)
	s.partial = append(s.partial, b...)

	var lines []Line
	start := 0
	for {
		idx := bytes.IndexByte(s.partial[scanFrom:], '\n')
		if idx < 0 {
			break
		}
		end := scanFrom + idx
		raw := s.partial[start:end]
		if n := len(raw); n > 0 && raw[n-1] == '\r' {
			raw = raw[:n-1]
		}
		lines = append(lines, NewLine(string(raw)))
		start = end + 1
		scanFrom = start
	}

	if start > 0 {
		rest := make([]byte, len(s.partial)-start)
		copy(rest, s.partial[start:])
		s.partial = rest
	}
	return lines
}

// Pending returns the number of bytes retained as a partial line.
func (s *Splitter) Pending() int {
	return len(s.partial)
}

// Flush returns the retained partial line, if any, and resets the splitter.
// Used when the stream ends so an unterminated tail is still delivered.
func (s *Splitter) Flush() (Line, bool) {
	if len(s.partial) == 0 {
		return Line{}, false
	}
	line := NewLine(string(s.partial))
	s.partial = nil
	return line, true
}

// SplitBatch re-splits a batch of rendered lines into classified lines.
// A trailing unterminated fragment is returned as a final line.
func SplitBatch(batch string) []Line {
	var s Splitter
	lines := s.Feed([]byte(batch))
	if tail, ok := s.Flush(); ok {
		lines = append(lines, tail)
	}
	return lines
}
