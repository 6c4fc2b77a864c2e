package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// reBareURL matches a bare http(s)/ftp URL or a bare email address, neither
// wrapped in <...> nor already part of a link/image construct. It is
// intentionally permissive: false negatives are safer here than false
// positives that would suppress real rule hits.
var reBareURL = regexp.MustCompile(`\b(?:https?|ftp)://[^\s<>()\[\]]+|[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// computeParagraphSpans scans the text-bearing portion of a line (offset
// bytes already consumed, e.g. a blockquote marker or list marker) and
// records inline spans. It is the classifier's only inline-aware step;
// results are stored 1-based against the *full* line, not the substring.
func (st *state) computeParagraphSpans(lineNum int, text string, byteOffset int) {
	spans := ScanInline(text)
	colOffset := utf8.RuneCountInString(st.doc.Line(lineNum)[:byteOffset])
	for i := range spans {
		spans[i].Start += colOffset
		spans[i].End += colOffset
		if spans[i].Kind == Link || spans[i].Kind == Image {
			spans[i].TextStart += colOffset
			spans[i].TextEnd += colOffset
			spans[i].DestStart += colOffset
			spans[i].DestEnd += colOffset
		}
	}
	st.c.Spans[lineNum-1] = spans
}

// ScanInline is a small left-to-right scanner over one line's text. It
// recognizes, in precedence order: code spans (highest precedence — once
// inside one, nothing else is scanned until the matching backtick run),
// raw HTML tags, autolinks, inline/reference links and images, bare URLs,
// and emphasis/strong runs. Columns are 1-based rune offsets into text.
//
// This is not a CommonMark-conformant inline parser: it aims to be "good
// enough to avoid false positives" per the block classifier's own mandate,
// not to render Markdown.
func ScanInline(text string) []Span {
	runes := []rune(text)
	n := len(runes)
	var spans []Span

	i := 0
	for i < n {
		switch {
		case runes[i] == '`':
			if end, ok := scanCodeSpan(runes, i); ok {
				spans = append(spans, Span{Kind: CodeSpan, Start: i + 1, End: end + 1})
				i = end
				continue
			}
		case runes[i] == '<':
			if end, raw, isAutolink := scanAngle(runes, i); end > i {
				kind := RawHTML
				if isAutolink {
					kind = Autolink
				}
				spans = append(spans, Span{Kind: kind, Start: i + 1, End: end + 1, LinkKind: linkKindFor(isAutolink), Dest: raw})
				i = end
				continue
			}
		case runes[i] == '!' && i+1 < n && runes[i+1] == '[':
			if sp, end, ok := scanLinkOrImage(runes, i+1, true); ok {
				sp.Start = i + 1
				spans = append(spans, sp)
				i = end
				continue
			}
		case runes[i] == '[':
			if sp, end, ok := scanLinkOrImage(runes, i, false); ok {
				spans = append(spans, sp)
				i = end
				continue
			}
		case runes[i] == '*' || runes[i] == '_':
			if end, level, ok := scanEmphasis(runes, i); ok {
				spans = append(spans, Span{
					Kind: Emphasis, Start: i + 1, End: end + 1,
					EmphasisChar: byte(runes[i]), EmphasisLevel: level,
				})
				i = end
				continue
			}
		}
		i++
	}

	spans = append(spans, scanBareURLs(text, spans)...)
	return spans
}

func linkKindFor(isAutolink bool) LinkKind {
	if isAutolink {
		return LinkAutolink
	}
	return 0
}

// scanCodeSpan finds a balanced backtick-delimited code span starting at
// openIdx (runes[openIdx] == '`'). Returns the rune index one past the
// closing run, and whether a match was found.
func scanCodeSpan(runes []rune, openIdx int) (int, bool) {
	n := len(runes)
	width := 0
	for openIdx+width < n && runes[openIdx+width] == '`' {
		width++
	}
	i := openIdx + width
	for i < n {
		if runes[i] == '`' {
			runWidth := 0
			for i+runWidth < n && runes[i+runWidth] == '`' {
				runWidth++
			}
			if runWidth == width {
				return i + runWidth, true
			}
			i += runWidth
			continue
		}
		i++
	}
	return 0, false
}

// scanAngle handles "<...>" constructs: autolinks (<http://...>, <a@b.c>)
// and raw HTML tags/comments. Returns the end index (exclusive of '>') and
// whether this looked like an autolink rather than a generic tag.
func scanAngle(runes []rune, start int) (end int, raw string, isAutolink bool) {
	n := len(runes)
	closeIdx := -1
	for j := start + 1; j < n; j++ {
		if runes[j] == '>' {
			closeIdx = j
			break
		}
		if runes[j] == ' ' || runes[j] == '<' {
			break
		}
	}
	if closeIdx < 0 {
		return start, "", false
	}
	inner := string(runes[start+1 : closeIdx])
	if strings.Contains(inner, "://") || strings.Contains(inner, "@") {
		return closeIdx, inner, true
	}
	if inner != "" && (unicode.IsLetter(rune(inner[0])) || inner[0] == '/') {
		return closeIdx, inner, false
	}
	return start, "", false
}

// scanLinkOrImage parses "[text](dest)" or "[text][ref]" starting at the
// '[' index. isImage indicates the leading '!' was already consumed by the
// caller (bracketStart points at the '[').
func scanLinkOrImage(runes []rune, bracketStart int, isImage bool) (Span, int, bool) {
	n := len(runes)
	if bracketStart >= n || runes[bracketStart] != '[' {
		return Span{}, 0, false
	}
	depth := 1
	j := bracketStart + 1
	textStart := j
	for j < n && depth > 0 {
		switch runes[j] {
		case '[':
			depth++
		case ']':
			depth--
		}
		if depth == 0 {
			break
		}
		j++
	}
	if j >= n {
		return Span{}, 0, false
	}
	textEnd := j
	j++ // consume ']'

	kind := Link
	if isImage {
		kind = Image
	}

	sp := Span{Kind: kind, TextStart: textStart + 1, TextEnd: textEnd + 1}

	switch {
	case j < n && runes[j] == '(':
		destStart := j + 1
		depthParen := 1
		k := destStart
		for k < n && depthParen > 0 {
			if runes[k] == '(' {
				depthParen++
			} else if runes[k] == ')' {
				depthParen--
				if depthParen == 0 {
					break
				}
			}
			k++
		}
		if k >= n {
			return Span{}, 0, false
		}
		destText := string(runes[destStart:k])
		if sp2 := strings.SplitN(destText, " ", 2); len(sp2) > 0 {
			destText = sp2[0]
		}
		sp.LinkKind = LinkInline
		sp.DestStart = destStart + 1
		sp.DestEnd = destStart + 1 + len([]rune(destText))
		sp.Dest = destText
		sp.End = k + 2
		return sp, k + 1, true

	case j < n && runes[j] == '[':
		refStart := j + 1
		k := refStart
		for k < n && runes[k] != ']' {
			k++
		}
		if k >= n {
			return Span{}, 0, false
		}
		sp.LinkKind = LinkReference
		sp.Dest = string(runes[refStart:k])
		if sp.Dest == "" {
			sp.Dest = string(runes[textStart:textEnd])
		}
		sp.End = k + 2
		return sp, k + 1, true

	default:
		// Shortcut reference: "[text]" with no following (...) or [...].
		sp.LinkKind = LinkReference
		sp.Dest = string(runes[textStart:textEnd])
		sp.End = textEnd + 2
		return sp, textEnd + 1, true
	}
}

// scanEmphasis finds a run of '*'/'_' delimiters matching runes[start] and
// its closer, returning the close index (one past the closing run) and the
// emphasis level (1 = single, 2 = double/strong).
func scanEmphasis(runes []rune, start int) (int, int, bool) {
	n := len(runes)
	ch := runes[start]
	width := 0
	for start+width < n && runes[start+width] == ch {
		width++
	}
	if width > 2 {
		return 0, 0, false
	}
	// Require non-space immediately after the opening run.
	if start+width >= n || runes[start+width] == ' ' {
		return 0, 0, false
	}
	i := start + width
	for i < n {
		if runes[i] == ch {
			runWidth := 0
			for i+runWidth < n && runes[i+runWidth] == ch {
				runWidth++
			}
			if runWidth >= width && runes[i-1] != ' ' {
				return i + width, width, true
			}
			i += runWidth
			continue
		}
		i++
	}
	return 0, 0, false
}

// scanBareURLs finds http(s)/ftp URLs not already covered by another span
// (link dest, code span, raw HTML/autolink).
func scanBareURLs(text string, existing []Span) []Span {
	matches := reBareURL.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	var out []Span
	for _, m := range matches {
		startCol := utf8.RuneCountInString(text[:m[0]]) + 1
		endCol := utf8.RuneCountInString(text[:m[1]]) + 1
		if coveredBy(existing, startCol, endCol) {
			continue
		}
		out = append(out, Span{Kind: BareURL, Start: startCol, End: endCol})
	}
	return out
}

func coveredBy(spans []Span, start, end int) bool {
	for _, sp := range spans {
		if sp.Kind == CodeSpan || sp.Kind == RawHTML || sp.Kind == Autolink ||
			sp.Kind == Link || sp.Kind == Image {
			if start >= sp.Start && end <= sp.End {
				return true
			}
		}
	}
	return false
}
