package rules

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// headingLine is one heading as seen by the classifier: either an AtxHeading
// line, or a Paragraph line immediately followed by a SetextUnderline line.
// Every heading rule in this file walks the same list instead of re-deriving
// heading boundaries from the AST.
type headingLine struct {
	lineNum       int // the line carrying the heading text
	underlineLine int // 0 for ATX; the underline's line number for setext
	level         int
	style         HeadingStyle
	textStart     int // ATX only: rune column where text begins
	textEnd       int // ATX only: rune column one past the text
}

func collectHeadings(cls *classify.Classification) []headingLine {
	var out []headingLine
	for i := 1; i <= len(cls.Lines); i++ {
		line := cls.At(i)
		switch line.Kind {
		case classify.AtxHeading:
			style := StyleATX
			if line.Closed {
				style = StyleATXClosed
			}
			out = append(out, headingLine{
				lineNum:   i,
				level:     line.Level,
				style:     style,
				textStart: line.TextStart,
				textEnd:   line.TextEnd,
			})
		case classify.SetextUnderline:
			out = append(out, headingLine{
				lineNum:       i - 1,
				underlineLine: i,
				level:         line.Level,
				style:         StyleSetext,
			})
		}
	}
	return out
}

func headingDiagPosition(ctx *lint.RuleContext, h headingLine) mdast.SourcePosition {
	doc := ctx.Doc()
	end := h.lineNum
	if h.underlineLine > 0 {
		end = h.underlineLine
	}
	return mdast.SourcePosition{
		StartLine:   h.lineNum,
		StartColumn: 1,
		EndLine:     end,
		EndColumn:   doc.LineRuneLength(end) + 1,
	}
}

// HeadingIncrementRule checks that heading levels increment by one.
type HeadingIncrementRule struct {
	lint.BaseRule
}

// NewHeadingIncrementRule creates a new heading increment rule.
func NewHeadingIncrementRule() *HeadingIncrementRule {
	return &HeadingIncrementRule{
		BaseRule: lint.NewBaseRule(
			"MD001",
			"heading-increment",
			"Heading levels should only increment by one level at a time",
			[]string{"headings"},
			false,
		),
	}
}

// Apply checks that heading levels increment by at most one.
func (r *HeadingIncrementRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	headings := collectHeadings(ctx.Classification())
	if len(headings) == 0 {
		return nil, nil
	}

	var diags []lint.Diagnostic
	var prevLevel int

	for _, h := range headings {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}
		if h.level == 0 {
			continue
		}

		// First heading can be any level.
		if prevLevel > 0 && h.level > prevLevel+1 {
			pos := headingDiagPosition(ctx, h)
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
				fmt.Sprintf("Heading level jumped from H%d to H%d", prevLevel, h.level)).
				WithSeverity(config.SeverityWarning).
				WithSuggestion(fmt.Sprintf("Use H%d instead", prevLevel+1)).
				Build()
			diags = append(diags, diag)
		}

		prevLevel = h.level
	}

	return diags, nil
}

// SingleH1Rule checks that there is at most one H1 heading.
type SingleH1Rule struct {
	lint.BaseRule
}

// NewSingleH1Rule creates a new single H1 rule.
func NewSingleH1Rule() *SingleH1Rule {
	return &SingleH1Rule{
		BaseRule: lint.NewBaseRule(
			"MD025",
			"single-h1",
			"Multiple top-level headings in the same document",
			[]string{"headings"},
			false,
		),
	}
}

// Apply checks that there is at most one H1 heading.
func (r *SingleH1Rule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	allowNoH1 := ctx.OptionBool("allow_no_h1", true)

	headings := collectHeadings(ctx.Classification())
	var h1Headings []headingLine

	for _, h := range headings {
		if ctx.Cancelled() {
			return nil, ctx.Ctx.Err()
		}
		if h.level == 1 {
			h1Headings = append(h1Headings, h)
		}
	}

	var diags []lint.Diagnostic

	// Check for missing H1.
	if !allowNoH1 && len(h1Headings) == 0 {
		pos := mdast.SourcePosition{
			StartLine:   1,
			StartColumn: 1,
			EndLine:     1,
			EndColumn:   1,
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			"Document should have an H1 heading").
			WithSeverity(config.SeverityWarning).
			WithSuggestion("Add an H1 heading at the beginning of the document").
			Build()
		diags = append(diags, diag)
	}

	// Flag all H1s after the first.
	for i := 1; i < len(h1Headings); i++ {
		h := h1Headings[i]
		pos := headingDiagPosition(ctx, h)
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			fmt.Sprintf("Multiple H1 headings found (this is H1 #%d)", i+1)).
			WithSeverity(config.SeverityWarning).
			WithSuggestion("Use H2 or lower for subsequent headings").
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// HeadingStyleRule enforces consistent heading style.
type HeadingStyleRule struct {
	lint.BaseRule
}

// NewHeadingStyleRule creates a new heading style rule.
func NewHeadingStyleRule() *HeadingStyleRule {
	return &HeadingStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD003",
			"heading-style",
			"Heading style should be consistent",
			[]string{"headings", "style"},
			true,
		),
	}
}

// HeadingStyle represents the style of a heading.
type HeadingStyle string

const (
	// StyleATX is the ATX style (# Heading).
	StyleATX HeadingStyle = "atx"
	// StyleATXClosed is the ATX style with closing hashes (# Heading #).
	StyleATXClosed HeadingStyle = "atx_closed"
	// StyleSetext is the setext style (underlined).
	StyleSetext HeadingStyle = "setext"
	// StyleConsistent means use whatever style is first encountered.
	StyleConsistent HeadingStyle = "consistent"
)

// Apply checks that all headings use a consistent style.
func (r *HeadingStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := HeadingStyle(ctx.OptionString("style", string(StyleATX)))
	requireClosingATX := ctx.OptionBool("require_closing_atx", false)

	// Determine effective style.
	effectiveStyle := configStyle
	if configStyle == StyleConsistent {
		effectiveStyle = "" // Will be set from first heading.
	}

	// If requiring closing ATX, the effective style is atx_closed.
	if requireClosingATX && (configStyle == StyleATX || configStyle == StyleConsistent) {
		if configStyle != StyleConsistent {
			effectiveStyle = StyleATXClosed
		}
	}

	headings := collectHeadings(ctx.Classification())
	var diags []lint.Diagnostic

	for _, h := range headings {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		detectedStyle := h.style
		if detectedStyle == "" {
			continue
		}

		// Set consistent style from first heading.
		if effectiveStyle == "" {
			effectiveStyle = detectedStyle
			if requireClosingATX && effectiveStyle == StyleATX {
				effectiveStyle = StyleATXClosed
			}
			continue
		}

		// Check for style mismatch.
		if !stylesMatch(detectedStyle, effectiveStyle, requireClosingATX) {
			diag := r.createStyleDiagnostic(ctx, h, detectedStyle, effectiveStyle, requireClosingATX)
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

func (r *HeadingStyleRule) createStyleDiagnostic(
	ctx *lint.RuleContext,
	h headingLine,
	detected, expected HeadingStyle,
	requireClosingATX bool,
) lint.Diagnostic {
	msg := fmt.Sprintf("Heading style '%s' does not match expected style '%s'", detected, expected)

	pos := headingDiagPosition(ctx, h)
	builder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
		WithSeverity(config.SeverityWarning).
		WithSuggestion(fmt.Sprintf("Use %s style headings", expected))

	// Only auto-fix ATX style changes (not setext conversions).
	if canAutoFix(detected, expected) {
		fixBuilder := buildHeadingStyleFix(ctx, h, detected, expected, requireClosingATX)
		if fixBuilder != nil {
			builder = builder.WithFix(fixBuilder)
		}
	}

	return builder.Build()
}

// stylesMatch checks if two styles are compatible.
func stylesMatch(detected, expected HeadingStyle, requireClosingATX bool) bool {
	if detected == expected {
		return true
	}

	// ATX and ATX_closed are compatible unless requireClosingATX is set.
	if !requireClosingATX {
		if (detected == StyleATX || detected == StyleATXClosed) &&
			(expected == StyleATX || expected == StyleATXClosed) {
			return true
		}
	}

	return false
}

// canAutoFix returns true if we can auto-fix between these styles.
func canAutoFix(from, to HeadingStyle) bool {
	// Only fix ATX <-> ATX_closed, not setext conversions.
	if from == StyleSetext || to == StyleSetext {
		return false
	}
	return true
}

// buildHeadingStyleFix creates an edit to fix heading style. It reuses the
// text span the classifier already located (Line.TextStart/TextEnd) rather
// than re-stripping hash markers from the raw line.
func buildHeadingStyleFix(
	ctx *lint.RuleContext,
	h headingLine,
	from, to HeadingStyle,
	requireClosingATX bool,
) *fix.EditBuilder {
	file := ctx.File
	if file == nil || h.lineNum < 1 || h.lineNum > len(file.Lines) {
		return nil
	}
	if h.level == 0 {
		return nil
	}

	var headingText string
	if h.textEnd > h.textStart {
		doc := ctx.Doc()
		headingText = strings.TrimSpace(doc.Substr(source.Range{
			Start: source.Position{Line: h.lineNum, Column: h.textStart},
			End:   source.Position{Line: h.lineNum, Column: h.textEnd},
		}))
	} else {
		headingText = extractHeadingText(lint.LineContent(file, h.lineNum), from)
	}

	var newHeading string
	if to == StyleATXClosed || (to == StyleATX && requireClosingATX) {
		newHeading = fmt.Sprintf("%s %s %s", strings.Repeat("#", h.level), headingText, strings.Repeat("#", h.level))
	} else {
		newHeading = fmt.Sprintf("%s %s", strings.Repeat("#", h.level), headingText)
	}

	line := file.Lines[h.lineNum-1]
	builder := fix.NewEditBuilder()
	builder.ReplaceRange(line.StartOffset, line.NewlineStart, newHeading)

	return builder
}

// headingLineText returns a heading's text content regardless of style:
// the classifier's own TextStart/TextEnd span for ATX, the paragraph line
// trimmed for setext. Shared by every rule in this package that needs
// heading text without walking an AST heading node.
func headingLineText(ctx *lint.RuleContext, h headingLine) string {
	file := ctx.File
	if file == nil || h.lineNum < 1 || h.lineNum > len(file.Lines) {
		return ""
	}
	if h.underlineLine > 0 {
		return strings.TrimSpace(string(lint.LineContent(file, h.lineNum)))
	}
	if h.textEnd > h.textStart {
		doc := ctx.Doc()
		return strings.TrimSpace(doc.Substr(source.Range{
			Start: source.Position{Line: h.lineNum, Column: h.textStart},
			End:   source.Position{Line: h.lineNum, Column: h.textEnd},
		}))
	}
	return extractHeadingText(lint.LineContent(file, h.lineNum), h.style)
}

// extractHeadingText strips ATX hash markers from a raw line. Used as a
// fallback when the classifier did not record a text span (e.g. a heading
// line containing only hashes).
func extractHeadingText(lineContent []byte, style HeadingStyle) string {
	content := string(bytes.TrimSpace(lineContent))

	content = strings.TrimLeft(content, "#")
	content = strings.TrimLeft(content, " \t")

	if style == StyleATXClosed {
		content = strings.TrimRight(content, "#")
		content = strings.TrimRight(content, " \t")
	}

	return content
}
