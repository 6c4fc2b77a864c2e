// Package classify implements the Markdown Classifier: a single
// left-to-right pass that tags each line of a Document with a block context
// and, for text-bearing lines, computes inline spans (code spans, emphasis,
// links, images, raw HTML). It deliberately never builds a parse tree — it
// labels lines, in the spirit of a simplified CommonMark block scanner —
// which keeps rule authoring simple and lets rules reason about malformed
// constructs that a strict tree parser would reject outright.
package classify

// Kind identifies the block context of one line.
type Kind int

const (
	Blank Kind = iota
	Paragraph
	AtxHeading
	SetextUnderline
	FenceOpen
	FenceBody
	FenceClose
	IndentedCode
	Blockquote
	ListItem
	ListContinuation
	HTMLBlock
	TableHeader
	TableDelimiter
	TableBody
	RefDef
	ThematicBreak
)

// String renders a Kind for diagnostics and test output.
func (k Kind) String() string {
	switch k {
	case Blank:
		return "Blank"
	case Paragraph:
		return "Paragraph"
	case AtxHeading:
		return "AtxHeading"
	case SetextUnderline:
		return "SetextUnderline"
	case FenceOpen:
		return "FenceOpen"
	case FenceBody:
		return "FenceBody"
	case FenceClose:
		return "FenceClose"
	case IndentedCode:
		return "IndentedCode"
	case Blockquote:
		return "Blockquote"
	case ListItem:
		return "ListItem"
	case ListContinuation:
		return "ListContinuation"
	case HTMLBlock:
		return "HTMLBlock"
	case TableHeader:
		return "TableHeader"
	case TableDelimiter:
		return "TableDelimiter"
	case TableBody:
		return "TableBody"
	case RefDef:
		return "RefDef"
	case ThematicBreak:
		return "ThematicBreak"
	default:
		return "Unknown"
	}
}

// Line carries the classification of a single line. Only the fields
// relevant to Kind are meaningful; others are left at their zero value.
// A struct-of-variants is used instead of an interface hierarchy because
// rules need cheap, allocation-free access to every line in a document.
type Line struct {
	Kind Kind

	// AtxHeading / SetextUnderline
	Level      int  // 1-6
	Closed     bool // ATX only: line also carries trailing "#...#"
	SetextChar byte // '=' (level 1) or '-' (level 2)
	TextStart  int  // 1-based rune column where heading text begins
	TextEnd    int  // 1-based rune column one past the heading text (before trailing hashes/spaces)

	// FenceOpen / FenceBody / FenceClose
	FenceChar   byte // '`' or '~'
	FenceWidth  int
	FenceIndent int
	Info        string // verbatim info string (FenceOpen only)

	// Blockquote / in-paragraph lazy continuation
	BlockquoteDepth int
	InnerStart      int  // 1-based rune column where quoted content starts
	InBlockquote    bool // set on Paragraph lines that are lazy blockquote continuations

	// ListItem / ListContinuation
	ListMarker       string // "-", "+", "*", or "12." / "3)"
	ListIndent       int    // column (0-based) where the marker begins
	ListContentStart int    // 1-based rune column where item content begins

	// HTMLBlock
	HTMLKind int // 1-7, per CommonMark's HTML block type table

	// RefDef
	RefLabel string
	RefDest  string
	RefTitle string
}

// SpanKind identifies the kind of an inline construct.
type SpanKind int

const (
	CodeSpan SpanKind = iota
	Emphasis
	Link
	Image
	RawHTML
	Autolink
	BareURL
)

// LinkKind distinguishes link/image subtypes.
type LinkKind int

const (
	LinkInline LinkKind = iota
	LinkReference
	LinkAutolink
	LinkBare
)

// Span is an interval within one line's content marking an inline construct.
// Start/End are 1-based rune columns, half-open ([Start, End)).
type Span struct {
	Kind SpanKind
	Start, End int

	EmphasisChar  byte // Emphasis only: '*' or '_'
	EmphasisLevel int  // Emphasis only: 1 (emphasis) or 2 (strong)

	LinkKind     LinkKind
	TextStart    int // Link/Image only
	TextEnd      int
	DestStart    int
	DestEnd      int
	Dest         string
}

// Classification is the result of classifying a Document: one Line per
// source line, plus inline spans for lines where they were computed
// (paragraphs, headings, table cells — never inside code or raw HTML).
type Classification struct {
	Lines []Line
	Spans [][]Span // Spans[i] corresponds to 1-based line i+1; nil if not computed
}

// At returns the classification of the given 1-based line, or the zero
// Line (Blank) if out of range.
func (c *Classification) At(lineNum int) Line {
	if lineNum < 1 || lineNum > len(c.Lines) {
		return Line{}
	}
	return c.Lines[lineNum-1]
}

// SpansAt returns the inline spans computed for the given 1-based line.
func (c *Classification) SpansAt(lineNum int) []Span {
	if lineNum < 1 || lineNum > len(c.Spans) {
		return nil
	}
	return c.Spans[lineNum-1]
}

// InCode reports whether the given 1-based column on the given 1-based line
// falls inside a CodeSpan or RawHTML inline span. Rules use this to avoid
// false positives (e.g. MD034 must not flag a bare URL sitting inside a
// code span).
func (c *Classification) InCode(lineNum, col int) bool {
	for _, sp := range c.SpansAt(lineNum) {
		if (sp.Kind == CodeSpan || sp.Kind == RawHTML) && col >= sp.Start && col < sp.End {
			return true
		}
	}
	return false
}
