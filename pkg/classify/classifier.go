package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/corvidlabs/mkdlint/pkg/source"
)

var (
	reATXOpen      = regexp.MustCompile(`^( {0,3})(#{1,6})(.*)$`)
	reSetext       = regexp.MustCompile(`^ {0,3}(=+|-+) *$`)
	reFence        = regexp.MustCompile("^( {0,3})(`{3,}|~{3,})(.*)$")
	reBlockquote   = regexp.MustCompile(`^ {0,3}((?:> ?)+)`)
	reListMarker   = regexp.MustCompile(`^( {0,3})([-+*]|\d{1,9}[.)])( +|$)`)
	reRefDef       = regexp.MustCompile(`^ {0,3}\[([^\]]+)\]:\s*(\S+)(?:\s+"([^"]*)")?\s*$`)
	reTableRow     = regexp.MustCompile(`\|`)
	reTableDelim   = regexp.MustCompile(`^ {0,3}\|?(\s*:?-+:?\s*\|)*\s*:?-+:?\s*\|?\s*$`)
	reHTMLBlockTag = regexp.MustCompile(`(?i)^ {0,3}</?(address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|h[1-6]|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|nav|noframes|ol|optgroup|option|p|param|section|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul)(?:[ \t>]|/?>|$)`)
	reHTMLRawTag1  = regexp.MustCompile(`(?i)^ {0,3}<(script|pre|style|textarea)(?:[ \t>]|$)`)
	reHTMLComment  = regexp.MustCompile(`^ {0,3}<!--`)
	reHTMLProcIns  = regexp.MustCompile(`^ {0,3}<\?`)
	reHTMLDecl     = regexp.MustCompile(`^ {0,3}<![A-Za-z]`)
	reHTMLCData    = regexp.MustCompile(`^ {0,3}<!\[CDATA\[`)
	reHTMLAnyTag   = regexp.MustCompile(`^ {0,3}(</?[A-Za-z][A-Za-z0-9-]*(?:\s[^>]*)?/?>|<!--.*-->)\s*$`)
)

// Classify runs the single-pass block classifier over doc, producing one
// Line per source line plus inline spans for paragraph/heading/table lines.
func Classify(doc *source.Document) *Classification {
	c := &Classification{
		Lines: make([]Line, doc.LineCount()),
		Spans: make([][]Span, doc.LineCount()),
	}

	st := &state{doc: doc, c: c}
	st.run()
	return c
}

// state carries the mutable, single-pass scanning state across lines:
// open fences, open HTML blocks, active list nesting, and the last
// paragraph seen (for setext lookback).
type state struct {
	doc *source.Document
	c   *Classification

	inFence      bool
	fenceChar    byte
	fenceWidth   int
	fenceClosed  bool
	inHTMLBlock  bool
	htmlBlockEnd *regexp.Regexp // nil means "blank line ends it"
	inTable      bool

	activeListContentStart int // 0 means "no active list"
	lastWasParagraph       bool
	lastParagraphLine      int
}

func (st *state) run() {
	n := st.doc.LineCount()
	for i := 1; i <= n; i++ {
		text := st.doc.Line(i)
		st.classifyLine(i, text)
	}
}

func (st *state) classifyLine(i int, text string) {
	trimmed := strings.TrimRight(text, " \t")

	if st.inFence {
		st.classifyFenceLine(i, text)
		return
	}

	if st.inHTMLBlock {
		st.classifyHTMLContinuation(i, text)
		return
	}

	if strings.TrimSpace(text) == "" {
		st.c.Lines[i-1] = Line{Kind: Blank}
		st.activeListContentStart = 0
		st.lastWasParagraph = false
		st.inTable = false
		return
	}

	if m := reFence.FindStringSubmatch(text); m != nil {
		st.startFence(i, m)
		return
	}

	if isIndentedCode(text) && st.activeListContentStart == 0 && !st.lastWasParagraph {
		st.c.Lines[i-1] = Line{Kind: IndentedCode}
		st.lastWasParagraph = false
		return
	}

	// Setext underline takes priority over thematic break when the
	// previous line was an ungapped paragraph.
	if st.lastWasParagraph {
		if m := reSetext.FindStringSubmatch(trimmed); m != nil {
			underline := m[1]
			level := 2
			if underline[0] == '=' {
				level = 1
			}
			prev := st.c.Lines[st.lastParagraphLine-1]
			prev.Kind = Paragraph // stays Paragraph; heading-ness is level+1 lookahead
			st.c.Lines[i-1] = Line{Kind: SetextUnderline, Level: level, SetextChar: underline[0]}
			st.lastWasParagraph = false
			return
		}
	}

	if isThematicBreak(trimmed) {
		st.c.Lines[i-1] = Line{Kind: ThematicBreak}
		st.lastWasParagraph = false
		st.activeListContentStart = 0
		return
	}

	if m := reATXOpen.FindStringSubmatch(text); m != nil {
		st.classifyATX(i, text, m)
		st.lastWasParagraph = false
		return
	}

	if m := reHTMLBlockKindMatch(text); m != 0 {
		st.startHTMLBlock(i, text, m)
		return
	}

	if m := reRefDef.FindStringSubmatch(text); m != nil {
		st.c.Lines[i-1] = Line{
			Kind:     RefDef,
			RefLabel: normalizeLabel(m[1]),
			RefDest:  m[2],
			RefTitle: m[3],
		}
		st.lastWasParagraph = false
		return
	}

	if m := reBlockquote.FindStringSubmatch(text); m != nil {
		depth := strings.Count(m[1], ">")
		st.c.Lines[i-1] = Line{
			Kind:            Blockquote,
			BlockquoteDepth: depth,
			InnerStart:      utf8.RuneCountInString(m[0]) + 1,
		}
		st.computeParagraphSpans(i, text[len(m[0]):], len(m[0]))
		st.lastWasParagraph = false
		return
	}

	if m := reListMarker.FindStringSubmatch(text); m != nil {
		st.classifyListItem(i, text, m)
		return
	}

	if looksLikeTableRow(text) {
		if st.inTable {
			st.c.Lines[i-1] = Line{Kind: TableBody}
			st.computeParagraphSpans(i, text, 0)
			return
		}
		// Need the next line to confirm a delimiter row.
		if i < len(st.c.Lines) {
			next := st.doc.Line(i + 1)
			if reTableDelim.MatchString(next) && reTableRow.MatchString(next) {
				st.c.Lines[i-1] = Line{Kind: TableHeader}
				st.computeParagraphSpans(i, text, 0)
				return
			}
		}
	}
	if st.inTable {
		// Previous row said a delimiter should follow; confirm it here.
		if reTableDelim.MatchString(text) && reTableRow.MatchString(text) {
			st.c.Lines[i-1] = Line{Kind: TableDelimiter}
			return
		}
		st.inTable = false
	}
	if i > 1 && st.c.Lines[i-2].Kind == TableHeader &&
		reTableDelim.MatchString(text) && reTableRow.MatchString(text) {
		st.c.Lines[i-1] = Line{Kind: TableDelimiter}
		st.inTable = true
		return
	}

	if st.activeListContentStart > 0 {
		indent := leadingSpaces(text)
		if indent >= st.activeListContentStart {
			st.c.Lines[i-1] = Line{Kind: ListContinuation}
			st.computeParagraphSpans(i, text, 0)
			return
		}
		st.activeListContentStart = 0
	}

	inBQ := false
	if i > 1 {
		prev := st.c.Lines[i-2]
		if prev.Kind == Blockquote || (prev.Kind == Paragraph && prev.InBlockquote) {
			inBQ = true
		}
	}
	st.c.Lines[i-1] = Line{Kind: Paragraph, InBlockquote: inBQ}
	st.computeParagraphSpans(i, text, 0)
	st.lastWasParagraph = true
	st.lastParagraphLine = i
}

func (st *state) startFence(i int, m []string) {
	fenceChars := m[2]
	st.c.Lines[i-1] = Line{
		Kind:        FenceOpen,
		FenceChar:   fenceChars[0],
		FenceWidth:  len(fenceChars),
		FenceIndent: len(m[1]),
		Info:        strings.TrimSpace(m[3]),
	}
	st.inFence = true
	st.fenceChar = fenceChars[0]
	st.fenceWidth = len(fenceChars)
	st.lastWasParagraph = false
	st.activeListContentStart = 0
}

func (st *state) classifyFenceLine(i int, text string) {
	trimmed := strings.TrimLeft(text, " ")
	if len(trimmed) >= st.fenceWidth && allRune(trimmed, rune(st.fenceChar)) {
		st.c.Lines[i-1] = Line{Kind: FenceClose, FenceChar: st.fenceChar, FenceWidth: len(trimmed)}
		st.inFence = false
		return
	}
	st.c.Lines[i-1] = Line{Kind: FenceBody}
}

func allRune(s string, r rune) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != r {
			return false
		}
	}
	return true
}

func (st *state) classifyATX(i int, text string, m []string) {
	hashes := m[2]
	rest := m[3]
	closed := false
	textPart := rest
	if strings.TrimSpace(rest) != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		// No space after hashes (MD018 territory): still an ATX heading,
		// text starts immediately.
	} else {
		textPart = strings.TrimPrefix(rest, " ")
		if textPart == rest {
			textPart = strings.TrimPrefix(rest, "\t")
		}
	}
	trimmedText := strings.TrimRight(textPart, " \t")
	if closeMatch := regexp.MustCompile(`\s+#+\s*$`).FindStringIndex(trimmedText); closeMatch != nil {
		trimmedText = trimmedText[:closeMatch[0]]
		closed = true
	} else if strings.TrimSpace(trimmedText) != "" && strings.HasSuffix(strings.TrimRight(textPart, " \t"), "#") {
		// handle heading with no space before closing hashes, e.g. "# Title#"
	}

	prefixLen := len(m[1]) + len(hashes)
	gapLen := len(rest) - len(strings.TrimPrefix(rest, " "))
	if gapLen == 0 {
		gapLen = len(rest) - len(strings.TrimPrefix(rest, "\t"))
	}
	textStart := utf8.RuneCountInString(text[:prefixLen]) + gapLen + 1
	if strings.TrimSpace(rest) == "" {
		textStart = utf8.RuneCountInString(text) + 1
	}

	st.c.Lines[i-1] = Line{
		Kind:      AtxHeading,
		Level:     len(hashes),
		Closed:    closed,
		TextStart: textStart,
		TextEnd:   textStart + utf8.RuneCountInString(strings.TrimSpace(trimmedText)),
	}
	st.computeParagraphSpans(i, strings.TrimSpace(trimmedText), 0)
}

func (st *state) classifyListItem(i int, text string, m []string) {
	indent := len(m[1])
	marker := m[2]
	spaceRun := len(m[3])
	if strings.TrimSpace(m[3]) == "" && m[3] == "" {
		spaceRun = 0
	}
	contentStart := indent + len(marker) + spaceRun
	if spaceRun == 0 {
		contentStart = indent + len(marker) + 1
	}
	st.c.Lines[i-1] = Line{
		Kind:             ListItem,
		ListMarker:       marker,
		ListIndent:       indent,
		ListContentStart: contentStart + 1,
	}
	st.activeListContentStart = contentStart
	st.lastWasParagraph = false
	rest := text
	if contentStart <= len(text) {
		rest = text[contentStart:]
	}
	st.computeParagraphSpans(i, rest, contentStart)
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 4
		} else {
			break
		}
	}
	return n
}

func isIndentedCode(text string) bool {
	if strings.HasPrefix(text, "\t") {
		return true
	}
	count := 0
	for _, r := range text {
		if r != ' ' {
			break
		}
		count++
	}
	return count >= 4 && strings.TrimSpace(text) != ""
}

func isThematicBreak(trimmed string) bool {
	compact := strings.ReplaceAll(trimmed, " ", "")
	if len(compact) < 3 {
		return false
	}
	first := compact[0]
	if first != '-' && first != '*' && first != '_' {
		return false
	}
	for i := 0; i < len(compact); i++ {
		if compact[i] != first {
			return false
		}
	}
	return true
}

func looksLikeTableRow(text string) bool {
	return strings.Contains(text, "|") && strings.TrimSpace(text) != ""
}

func normalizeLabel(label string) string {
	fields := strings.Fields(label)
	return strings.ToLower(strings.Join(fields, " "))
}

// reHTMLBlockKindMatch returns the CommonMark HTML block kind (1-7) this
// line opens, or 0 if it opens none.
func reHTMLBlockKindMatch(text string) int {
	switch {
	case reHTMLRawTag1.MatchString(text):
		return 1
	case reHTMLComment.MatchString(text):
		return 2
	case reHTMLProcIns.MatchString(text):
		return 3
	case reHTMLDecl.MatchString(text):
		return 4
	case reHTMLCData.MatchString(text):
		return 5
	case reHTMLBlockTag.MatchString(text):
		return 6
	case reHTMLAnyTag.MatchString(text):
		return 7
	default:
		return 0
	}
}

func (st *state) startHTMLBlock(i int, text string, kind int) {
	st.c.Lines[i-1] = Line{Kind: HTMLBlock, HTMLKind: kind}
	st.lastWasParagraph = false
	st.activeListContentStart = 0

	switch kind {
	case 1:
		st.inHTMLBlock = true
		st.htmlBlockEnd = regexp.MustCompile(`(?i)</(script|pre|style|textarea)>`)
	case 2:
		if !strings.Contains(text, "-->") {
			st.inHTMLBlock = true
			st.htmlBlockEnd = regexp.MustCompile(`-->`)
		}
	case 3:
		if !strings.Contains(text, "?>") {
			st.inHTMLBlock = true
			st.htmlBlockEnd = regexp.MustCompile(`\?>`)
		}
	case 4:
		if !strings.Contains(text, ">") {
			st.inHTMLBlock = true
			st.htmlBlockEnd = regexp.MustCompile(`>`)
		}
	case 5:
		if !strings.Contains(text, "]]>") {
			st.inHTMLBlock = true
			st.htmlBlockEnd = regexp.MustCompile(`\]\]>`)
		}
	default:
		// Kinds 6 and 7 end at the next blank line.
		st.inHTMLBlock = true
		st.htmlBlockEnd = nil
	}
}

func (st *state) classifyHTMLContinuation(i int, text string) {
	if st.htmlBlockEnd == nil {
		if strings.TrimSpace(text) == "" {
			st.c.Lines[i-1] = Line{Kind: Blank}
			st.inHTMLBlock = false
			return
		}
		st.c.Lines[i-1] = Line{Kind: HTMLBlock}
		return
	}
	st.c.Lines[i-1] = Line{Kind: HTMLBlock}
	if st.htmlBlockEnd.MatchString(text) {
		st.inHTMLBlock = false
	}
}
