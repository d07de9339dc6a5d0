package core

// streaming.go provides the readers wrapped around every input file:
//
//   - DecodeInput: honours a UTF-8 or UTF-16 byte-order mark, drops it,
//     replaces invalid UTF-8 with U+FFFD on the fly and rewrites
//     backslash-escaped quotes into the doubled form encoding/csv reads
//   - CountingReader: tracks bytes read and enforces an optional size limit
//
// Both are streaming transforms; the file is never buffered twice.

import (
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrFileTooLarge is returned by CountingReader once the limit is exceeded.
var ErrFileTooLarge = errors.New("file too large")

// DecodeInput returns a reader producing clean UTF-8.
// Spreadsheet exports saved as "Unicode text" (UTF-16 with BOM) are
// transcoded; a UTF-8 BOM is removed. Inside a quoted field \" becomes ""
// and \\ is kept as is.
func DecodeInput(r io.Reader) io.Reader {
	return transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		&escapedQuotes{},
	))
}

const (
	fieldStart  = iota // at the first byte of a field
	fieldPlain         // inside an unquoted field
	fieldQuoted        // inside a quoted field
	fieldClosed        // just after the closing quote of a quoted field
)

// escapedQuotes rewrites backslash-escaped quotes inside quoted fields.
// Quotes only open a field at its first byte, as with csv.Reader.LazyQuotes.
type escapedQuotes struct {
	state int
}

func (e *escapedQuotes) Reset() { e.state = fieldStart }

func (e *escapedQuotes) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]

		if c == '\\' && e.state == fieldQuoted {
			if nSrc+1 == len(src) && !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
			if nSrc+1 < len(src) && (src[nSrc+1] == '"' || src[nSrc+1] == '\\') {
				if nDst+2 > len(dst) {
					return nDst, nSrc, transform.ErrShortDst
				}
				next := src[nSrc+1]
				if next == '"' {
					dst[nDst] = '"'
				} else {
					dst[nDst] = '\\'
				}
				dst[nDst+1] = next
				nDst, nSrc = nDst+2, nSrc+2
				continue
			}
		}

		if nDst == len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		e.state = nextFieldState(e.state, c)
		dst[nDst] = c
		nDst, nSrc = nDst+1, nSrc+1
	}
	return nDst, nSrc, nil
}

func nextFieldState(state int, c byte) int {
	switch state {
	case fieldQuoted:
		if c == '"' {
			return fieldClosed
		}
		return fieldQuoted
	case fieldStart, fieldClosed:
		if c == '"' {
			return fieldQuoted
		}
	}
	if c == ',' || c == '\n' || c == '\r' {
		return fieldStart
	}
	return fieldPlain
}

// CountingReader wraps an io.Reader and tracks bytes read.
type CountingReader struct {
	reader    io.Reader
	limit     int64
	BytesRead int64
}

// NewCountingReader creates a counting reader. A limit <= 0 disables the
// size check.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{reader: r, limit: limit}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.BytesRead += int64(n)
	if c.limit > 0 && c.BytesRead > c.limit {
		return n, ErrFileTooLarge
	}
	return n, err
}
