package ical

import (
	"bufio"
	"io"
	"strings"
)

// LineReader turns a raw byte stream into logical content lines. Physical
// lines that start with a single space or tab are merged into the previous
// line with the leading whitespace removed ("unfolding").
//
// CRLF is the preferred terminator. Bare LF and bare CR are accepted unless
// strict mode is on, in which case they fail with ErrMalformedLineEnding.
type LineReader struct {
	reader *bufio.Reader
	strict bool

	// physical lines queued when a chunk contained bare CR terminators
	queued []string

	pending     string // logical line being assembled
	havePending bool

	lineNum int // physical line counter, for error context
	done    bool
	err     error
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		reader: bufio.NewReader(r),
	}
}

// Make non-CRLF terminators a hard error.
// Returns itself for chaining.
func (lr *LineReader) Strict() *LineReader {
	lr.strict = true
	return lr
}

// Next returns the next logical line. The second return value is false once
// the input is exhausted or an error occurred; check Err afterwards.
func (lr *LineReader) Next() (string, bool) {
	if lr.err != nil {
		return "", false
	}
	for {
		physical, ok := lr.physical()
		if !ok {
			if lr.err == nil && lr.havePending {
				lr.havePending = false
				return lr.pending, true
			}
			return "", false
		}
		if len(physical) > 0 && (physical[0] == ' ' || physical[0] == '\t') && lr.havePending {
			// continuation of the previous line
			lr.pending += physical[1:]
			continue
		}
		if lr.havePending {
			complete := lr.pending
			lr.pending = physical
			return complete, true
		}
		lr.pending = physical
		lr.havePending = true
	}
}

// Err reports the first error hit while reading, nil on clean EOF.
func (lr *LineReader) Err() error {
	return lr.err
}

// Line is the number of the last physical line consumed.
func (lr *LineReader) Line() int {
	return lr.lineNum
}

// physical reads one physical line, without its terminator.
func (lr *LineReader) physical() (string, bool) {
	if len(lr.queued) > 0 {
		line := lr.queued[0]
		lr.queued = lr.queued[1:]
		lr.lineNum++
		return line, true
	}
	if lr.done {
		return "", false
	}

	chunk, err := lr.reader.ReadString('\n')
	if err == io.EOF {
		lr.done = true
		if chunk == "" {
			return "", false
		}
	} else if err != nil {
		lr.done = true
		lr.err = err
		return "", false
	}

	hadLF := strings.HasSuffix(chunk, "\n")
	chunk = strings.TrimSuffix(chunk, "\n")
	hadCRLF := strings.HasSuffix(chunk, "\r")
	chunk = strings.TrimSuffix(chunk, "\r")

	if lr.strict {
		switch {
		case hadLF && !hadCRLF:
			lr.err = NewCustomError("expected CRLF, got bare LF", ErrMalformedLineEnding, map[string]any{
				"line": lr.lineNum + 1,
			})
			return "", false
		case strings.Contains(chunk, "\r"):
			lr.err = NewCustomError("expected CRLF, got bare CR", ErrMalformedLineEnding, map[string]any{
				"line": lr.lineNum + 1,
			})
			return "", false
		}
	}

	// a bare CR inside the chunk terminates a line too (old Mac files)
	if strings.Contains(chunk, "\r") {
		parts := strings.Split(chunk, "\r")
		lr.queued = append(lr.queued, parts[1:]...)
		chunk = parts[0]
	}

	lr.lineNum++
	return chunk, true
}

// FoldLine wraps a content line at 75 octets, continuation lines prefixed
// with a single space, CRLF terminators throughout. Folding never splits a
// UTF-8 sequence. The inverse of the unfolding LineReader performs.
func FoldLine(line string) string {
	const limit = 75

	if len(line) <= limit {
		return line + "\r\n"
	}

	var sb strings.Builder
	budget := limit
	for len(line) > budget {
		cut := budget
		// back off to a rune boundary
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		sb.WriteString(line[:cut])
		sb.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines spend one octet on the leading space
		budget = limit - 1
	}
	sb.WriteString(line)
	sb.WriteString("\r\n")
	return sb.String()
}
