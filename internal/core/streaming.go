package core

// streaming.go prepares delimited text for encoding/csv without buffering the
// whole file: a leading UTF-8 BOM is dropped, invalid UTF-8 bytes become '?',
// and the bytes consumed are counted for the load report.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM discards a UTF-8 byte order mark at the head of br, if present.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as data streams
// through. A multi-byte sequence split across two reads is carried over
// and validated on the next call.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader. p should hold at least utf8.UTFMax bytes.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[:0]

	m, err := s.r.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}
	atEOF := err != nil

	w := 0
	for i := 0; i < n; {
		if p[i] < utf8.RuneSelf {
			p[w] = p[i]
			w++
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(p[i:n]) {
			s.pending = append(s.pending, p[i:n]...)
			break
		}
		r, size := utf8.DecodeRune(p[i:n])
		if r == utf8.RuneError && size == 1 {
			p[w] = '?'
			w++
			i++
			continue
		}
		copy(p[w:], p[i:i+size])
		w += size
		i += size
	}

	return w, err
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	r io.Reader
	n int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *CountingReader) BytesRead() int64 { return c.n }

// textReader strips the BOM from br and sanitizes what follows.
func textReader(br *bufio.Reader) (io.Reader, error) {
	if err := skipBOM(br); err != nil {
		return nil, err
	}
	return NewUTF8Sanitizer(br), nil
}
