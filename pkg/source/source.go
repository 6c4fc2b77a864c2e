// Package source provides an immutable view of a Markdown document as bytes,
// line slices, and a byte/rune position index. It is the lowest layer of the
// lint pipeline: nothing above it mutates the original bytes.
package source

import (
	"sort"
	"unicode/utf8"
)

// Position is a 1-based line and column. Column counts Unicode scalar values,
// not bytes and not grapheme clusters.
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether both fields are positive.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// Range is a half-open [Start, End) pair on the same or consecutive lines.
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the range spans zero columns/lines.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// line holds byte offsets for one physical line, including its terminator.
type line struct {
	startByte      int // first byte of line content
	terminatorByte int // first byte of the line terminator ("" if none)
	endByte        int // one past the last byte of the terminator (or content, if none)
	terminator     string
	runeCount      int // number of scalar values in the content (excluding terminator)
}

// Document is an immutable view over a document's bytes.
type Document struct {
	content     []byte
	lines       []line
	mixedEOLs   bool
	hasFinalEOL bool
}

// New builds a Document from raw bytes. Construction is O(n).
func New(content []byte) *Document {
	doc := &Document{content: content}
	doc.buildLines()
	return doc
}

func (d *Document) buildLines() {
	content := d.content
	start := 0
	sawLF, sawCRLF := false, false

	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		termStart := i
		term := "\n"
		if i > 0 && content[i-1] == '\r' {
			termStart = i - 1
			term = "\r\n"
			sawCRLF = true
		} else {
			sawLF = true
		}
		d.lines = append(d.lines, line{
			startByte:      start,
			terminatorByte: termStart,
			endByte:        i + 1,
			terminator:     term,
			runeCount:      utf8.RuneCount(content[start:termStart]),
		})
		start = i + 1
	}

	if start <= len(content) {
		// Trailing line without a terminator, possibly empty.
		if start < len(content) || len(d.lines) == 0 {
			d.lines = append(d.lines, line{
				startByte:      start,
				terminatorByte: len(content),
				endByte:        len(content),
				terminator:     "",
				runeCount:      utf8.RuneCount(content[start:]),
			})
		}
	}

	d.mixedEOLs = sawLF && sawCRLF
	d.hasFinalEOL = len(content) > 0 && (content[len(content)-1] == '\n')
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Bytes returns the raw document content.
func (d *Document) Bytes() []byte {
	return d.content
}

// MixedLineEndings reports whether the document mixes LF and CRLF terminators.
func (d *Document) MixedLineEndings() bool {
	return d.mixedEOLs
}

// HasFinalNewline reports whether the document's last byte is a newline.
func (d *Document) HasFinalNewline() bool {
	return d.hasFinalEOL
}

// Line returns the content of the given 1-based line, excluding its
// terminator. Returns "" for an out-of-range line.
func (d *Document) Line(n int) string {
	if n < 1 || n > len(d.lines) {
		return ""
	}
	l := d.lines[n-1]
	return string(d.content[l.startByte:l.terminatorByte])
}

// Terminator returns "\n", "\r\n", or "" (last line, no trailing newline)
// for the given 1-based line.
func (d *Document) Terminator(n int) string {
	if n < 1 || n > len(d.lines) {
		return ""
	}
	return d.lines[n-1].terminator
}

// LineRuneLength returns the number of Unicode scalar values on the given
// 1-based line, excluding the terminator.
func (d *Document) LineRuneLength(n int) int {
	if n < 1 || n > len(d.lines) {
		return 0
	}
	return d.lines[n-1].runeCount
}

// ByteToPos converts a byte offset into the document to a 1-based
// (line, column) position, where column is a scalar-value count.
func (d *Document) ByteToPos(offset int) Position {
	if len(d.lines) == 0 {
		return Position{}
	}
	idx := sort.Search(len(d.lines), func(i int) bool {
		return d.lines[i].endByte > offset
	})
	if idx >= len(d.lines) {
		idx = len(d.lines) - 1
	}
	l := d.lines[idx]
	if offset < l.startByte {
		offset = l.startByte
	}
	end := l.terminatorByte
	if offset > end {
		offset = end
	}
	col := utf8.RuneCount(d.content[l.startByte:offset]) + 1
	return Position{Line: idx + 1, Column: col}
}

// PosToByte converts a 1-based (line, column) position to a byte offset.
// Column may point one past the last scalar on the line (end-of-line cursor).
// Returns (-1, false) if the position is out of range.
func (d *Document) PosToByte(p Position) (int, bool) {
	if p.Line < 1 || p.Line > len(d.lines) || p.Column < 1 {
		return -1, false
	}
	l := d.lines[p.Line-1]
	lineBytes := d.content[l.startByte:l.terminatorByte]
	remaining := p.Column - 1
	offset := l.startByte
	for remaining > 0 {
		if len(lineBytes) == 0 {
			if remaining == 0 {
				break
			}
			return -1, false
		}
		_, size := utf8.DecodeRune(lineBytes)
		offset += size
		lineBytes = lineBytes[size:]
		remaining--
	}
	if offset > l.terminatorByte {
		return -1, false
	}
	return offset, true
}

// Substr returns the text covered by the given Range.
func (d *Document) Substr(r Range) string {
	startByte, ok1 := d.PosToByte(r.Start)
	endByte, ok2 := d.PosToByte(r.End)
	if !ok1 || !ok2 || startByte > endByte {
		return ""
	}
	return string(d.content[startByte:endByte])
}

// SanitizeUTF8 replaces every invalid UTF-8 byte sequence in content with
// the replacement scalar U+FFFD and reports whether any replacement was
// made. The caller is expected to build the Document from the returned
// bytes so downstream line/rune indexing never observes invalid sequences.
func SanitizeUTF8(content []byte) ([]byte, bool) {
	if utf8.Valid(content) {
		return content, false
	}

	out := make([]byte, 0, len(content))
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRune(content[i:])
		if r == utf8.RuneError && size <= 1 {
			out = append(out, "�"...)
			i++
			continue
		}
		out = append(out, content[i:i+size]...)
		i += size
	}
	return out, true
}
