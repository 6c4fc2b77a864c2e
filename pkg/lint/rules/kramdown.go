// Package rules: Kramdown-extension rules (KMD001-KMD005).
//
// Kramdown is the Markdown dialect this project's rule catalog borrows its
// KMD numbering from: definition lists, footnotes, abbreviations, and
// explicit heading IDs via `{#id}` attribute lists. None of these
// constructs are part of CommonMark/GFM, so the classifier (pkg/classify)
// does not model them structurally — these rules scan raw lines directly,
// using the classifier only to skip fenced/indented code.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/lint/refs"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
)

// DefinitionListTermRule checks that Kramdown definition-list terms are
// followed by a `: definition` line (KMD001).
type DefinitionListTermRule struct {
	lint.BaseRule
}

// NewDefinitionListTermRule creates a new KMD001 rule.
func NewDefinitionListTermRule() *DefinitionListTermRule {
	return &DefinitionListTermRule{
		BaseRule: lint.NewBaseRule(
			"KMD001",
			"definition-list-term-has-definition",
			"Definition list terms must be followed by a definition",
			[]string{"kramdown", "definition-lists"},
			false, // Not auto-fixable.
		),
	}
}

// DefaultEnabled returns false: this is a Kramdown-specific opt-in rule,
// like the rest of the KMD catalog.
func (r *DefinitionListTermRule) DefaultEnabled() bool {
	return false
}

// dlDefinitionLinePattern matches a Kramdown definition line: `: text` or a
// bare `:`.
var dlDefinitionLinePattern = regexp.MustCompile(`^\s*:(\s|$)`)

// dlBlockMarkers lists the leading characters/prefixes that disqualify a
// line from being a definition-list term: headings, list markers,
// blockquotes, fences, tables, images, reference definitions, HTML
// comments, and thematic breaks all read as something else first.
func looksLikeDLTerm(line string) bool {
	if line == "" {
		return false
	}
	if line[0] == ' ' || line[0] == '\t' {
		return false
	}
	switch line[0] {
	case ':', '#', '-', '*', '+', '>', '`', '~', '|', '!', '[':
		return false
	}
	switch {
	case strings.HasPrefix(line, "<!--"):
		return false
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "==="), strings.HasPrefix(line, "***"):
		return false
	}
	return true
}

// isDLDefinitionLine reports whether line is a Kramdown `: definition` line.
func isDLDefinitionLine(line string) bool {
	return dlDefinitionLinePattern.MatchString(line)
}

// Apply checks every candidate term line for a following definition.
func (r *DefinitionListTermRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	doc := ctx.Doc()
	cls := ctx.Classification()
	total := len(ctx.File.Lines)

	docHasAnyDL := false
	for i := 1; i <= total; i++ {
		if inCodeBlock(cls.At(i).Kind) {
			continue
		}
		if isDLDefinitionLine(doc.Line(i)) {
			docHasAnyDL = true
			break
		}
	}
	if !docHasAnyDL {
		return nil, nil
	}

	var diags []lint.Diagnostic

	for i := 1; i <= total; i++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if inCodeBlock(cls.At(i).Kind) {
			continue
		}

		line := doc.Line(i)
		if !looksLikeDLTerm(line) {
			continue
		}

		// Look ahead up to 3 lines, skipping blanks, for a definition line.
		foundDef := false
		for j := i + 1; j <= total && j <= i+3; j++ {
			next := doc.Line(j)
			if isDLDefinitionLine(next) {
				foundDef = true
				break
			}
			if strings.TrimSpace(next) == "" {
				continue
			}
			break
		}

		if !foundDef {
			pos := mdast.SourcePosition{
				StartLine:   i,
				StartColumn: 1,
				EndLine:     i,
				EndColumn:   doc.LineRuneLength(i) + 1,
			}
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, "Term has no definition").
				WithSeverity(config.SeverityError).
				WithSuggestion("Add a ': definition' line directly below the term").
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// footnoteDefPattern matches a footnote definition at line start: `[^label]:`.
var footnoteDefPattern = regexp.MustCompile(`^\[\^([^\]]+)\]:`)

// footnoteRefPattern matches any `[^label]` occurrence.
var footnoteRefPattern = regexp.MustCompile(`\[\^([^\]]+)\]`)

// FootnoteReferenceDefinedRule checks that every footnote reference has a
// matching definition (KMD002).
type FootnoteReferenceDefinedRule struct {
	lint.BaseRule
}

// NewFootnoteReferenceDefinedRule creates a new KMD002 rule.
func NewFootnoteReferenceDefinedRule() *FootnoteReferenceDefinedRule {
	return &FootnoteReferenceDefinedRule{
		BaseRule: lint.NewBaseRule(
			"KMD002",
			"footnote-refs-defined",
			"Footnote references must have matching definitions",
			[]string{"kramdown", "footnotes"},
			false,
		),
	}
}

// DefaultEnabled returns false: opt-in Kramdown rule.
func (r *FootnoteReferenceDefinedRule) DefaultEnabled() bool {
	return false
}

// Apply reports every footnote reference with no corresponding definition.
func (r *FootnoteReferenceDefinedRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	definitions, references := collectFootnotes(ctx)

	var diags []lint.Diagnostic
	for label, lineNum := range references {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if _, ok := definitions[label]; ok {
			continue
		}

		doc := ctx.Doc()
		pos := mdast.SourcePosition{
			StartLine:   lineNum,
			StartColumn: 1,
			EndLine:     lineNum,
			EndColumn:   doc.LineRuneLength(lineNum) + 1,
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			fmt.Sprintf("Footnote reference '[^%s]' has no definition", label)).
			WithSeverity(config.SeverityError).
			WithSuggestion("Add a matching '[^" + label + "]: ...' definition").
			Build()
		diags = append(diags, diag)
	}

	sortByPosition(diags)
	return diags, nil
}

// FootnoteDefinitionUsedRule checks that every footnote definition is
// referenced somewhere in the document (KMD003).
type FootnoteDefinitionUsedRule struct {
	lint.BaseRule
}

// NewFootnoteDefinitionUsedRule creates a new KMD003 rule.
func NewFootnoteDefinitionUsedRule() *FootnoteDefinitionUsedRule {
	return &FootnoteDefinitionUsedRule{
		BaseRule: lint.NewBaseRule(
			"KMD003",
			"footnote-defs-used",
			"Footnote definitions must be referenced in the document",
			[]string{"kramdown", "footnotes"},
			false,
		),
	}
}

// DefaultEnabled returns false: opt-in Kramdown rule.
func (r *FootnoteDefinitionUsedRule) DefaultEnabled() bool {
	return false
}

// Apply reports every footnote definition that is never referenced.
func (r *FootnoteDefinitionUsedRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	definitions, references := collectFootnotes(ctx)

	var diags []lint.Diagnostic
	for label, lineNum := range definitions {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if _, ok := references[label]; ok {
			continue
		}

		doc := ctx.Doc()
		pos := mdast.SourcePosition{
			StartLine:   lineNum,
			StartColumn: 1,
			EndLine:     lineNum,
			EndColumn:   doc.LineRuneLength(lineNum) + 1,
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			fmt.Sprintf("Footnote definition '[^%s]' is never referenced", label)).
			WithSeverity(config.SeverityError).
			WithSuggestion("Reference it with '[^" + label + "]' or remove the definition").
			Build()
		diags = append(diags, diag)
	}

	sortByPosition(diags)
	return diags, nil
}

// sortByPosition orders diagnostics by line then column, since the footnote
// maps above are built from Go map iteration and have no inherent order.
func sortByPosition(diags []lint.Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].StartLine != diags[j].StartLine {
			return diags[i].StartLine < diags[j].StartLine
		}
		return diags[i].StartColumn < diags[j].StartColumn
	})
}

// collectFootnotes scans the non-code lines of the document for footnote
// definitions (`[^label]:`) and references (any other `[^label]`),
// returning label -> first-seen-line maps for each, folded to lowercase.
// Shared by KMD002 and KMD003 so both rules agree on what counts as a
// definition vs. a reference.
func collectFootnotes(ctx *lint.RuleContext) (definitions, references map[string]int) {
	doc := ctx.Doc()
	cls := ctx.Classification()
	total := len(ctx.File.Lines)

	definitions = make(map[string]int)
	references = make(map[string]int)

	for i := 1; i <= total; i++ {
		if inCodeBlock(cls.At(i).Kind) {
			continue
		}
		line := doc.Line(i)

		if m := footnoteDefPattern.FindStringSubmatch(line); m != nil {
			label := strings.ToLower(m[1])
			if _, ok := definitions[label]; !ok {
				definitions[label] = i
			}
			continue // A definition line's own `[^label]:` is not also a reference.
		}

		for _, m := range footnoteRefPattern.FindAllStringSubmatch(line, -1) {
			label := strings.ToLower(m[1])
			if _, ok := references[label]; !ok {
				references[label] = i
			}
		}
	}

	return definitions, references
}

// abbrevDefPattern matches a Kramdown abbreviation definition: `*[TERM]: expansion`.
var abbrevDefPattern = regexp.MustCompile(`^\*\[([^\]]+)\]:`)

// AbbreviationUsedRule checks that every abbreviation definition's term
// appears somewhere in the document body (KMD004).
type AbbreviationUsedRule struct {
	lint.BaseRule
}

// NewAbbreviationUsedRule creates a new KMD004 rule.
func NewAbbreviationUsedRule() *AbbreviationUsedRule {
	return &AbbreviationUsedRule{
		BaseRule: lint.NewBaseRule(
			"KMD004",
			"abbreviation-defs-used",
			"Abbreviation definitions should be used in document text",
			[]string{"kramdown", "abbreviations"},
			false,
		),
	}
}

// DefaultEnabled returns false: opt-in Kramdown rule.
func (r *AbbreviationUsedRule) DefaultEnabled() bool {
	return false
}

// Apply reports every abbreviation definition whose term never occurs in
// the rest of the document text.
func (r *AbbreviationUsedRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	doc := ctx.Doc()
	cls := ctx.Classification()
	total := len(ctx.File.Lines)

	type abbrev struct {
		term string
		line int
	}
	var abbreviations []abbrev
	bodyLines := make([]string, 0, total)

	for i := 1; i <= total; i++ {
		line := doc.Line(i)
		if m := abbrevDefPattern.FindStringSubmatch(line); m != nil {
			if !inCodeBlock(cls.At(i).Kind) {
				abbreviations = append(abbreviations, abbrev{term: m[1], line: i})
			}
			continue // Definition lines are excluded from the usage-search body.
		}
		bodyLines = append(bodyLines, line)
	}

	if len(abbreviations) == 0 {
		return nil, nil
	}

	body := strings.Join(bodyLines, "\n")

	var diags []lint.Diagnostic
	for _, a := range abbreviations {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if strings.Contains(body, a.term) {
			continue
		}

		pos := mdast.SourcePosition{
			StartLine:   a.line,
			StartColumn: 1,
			EndLine:     a.line,
			EndColumn:   doc.LineRuneLength(a.line) + 1,
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			fmt.Sprintf("Abbreviation '%s' is defined but never used in text", a.term)).
			WithSeverity(config.SeverityError).
			WithSuggestion("Use the abbreviation in the text, or remove the definition").
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}

// headingIALPattern matches a trailing Kramdown attribute list on a
// heading line, e.g. " {#custom-id .class}".
var headingIALPattern = regexp.MustCompile(`\{[^}]*\}\s*$`)

// headingExplicitIDPattern extracts the `#id` token from within an IAL.
var headingExplicitIDPattern = regexp.MustCompile(`\{[^}]*#([A-Za-z][\w-]*)[^}]*\}`)

// DuplicateHeadingIDRule checks that headings never resolve to the same ID
// twice, whether the ID comes from an explicit `{#id}` attribute list or
// from auto-generated slugging (KMD005).
type DuplicateHeadingIDRule struct {
	lint.BaseRule
}

// NewDuplicateHeadingIDRule creates a new KMD005 rule.
func NewDuplicateHeadingIDRule() *DuplicateHeadingIDRule {
	return &DuplicateHeadingIDRule{
		BaseRule: lint.NewBaseRule(
			"KMD005",
			"no-duplicate-heading-ids",
			"Heading IDs must be unique within the document",
			[]string{"kramdown", "headings", "ids"},
			false,
		),
	}
}

// DefaultEnabled returns false: opt-in Kramdown rule.
func (r *DuplicateHeadingIDRule) DefaultEnabled() bool {
	return false
}

// Apply walks every heading the classifier found (collectHeadings, shared
// with MD001/MD024/etc.) and reports the second and later occurrence of
// any ID, explicit or auto-generated.
func (r *DuplicateHeadingIDRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	headings := collectHeadings(ctx.Classification())
	seen := make(map[string]int)
	var diags []lint.Diagnostic

	for _, h := range headings {
		if ctx.Cancelled() {
			break
		}

		rawText := headingLineText(ctx, h)
		if rawText == "" {
			continue
		}

		id := headingID(rawText)
		if id == "" {
			continue
		}

		if firstLine, ok := seen[id]; ok {
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, headingDiagPosition(ctx, h),
				fmt.Sprintf("Duplicate heading ID '%s' (first defined on line %d)", id, firstLine)).
				WithSeverity(config.SeverityError).
				WithSuggestion("Give one of the headings an explicit {#id}").
				Build()
			diags = append(diags, diag)
		} else {
			seen[id] = h.lineNum
		}
	}

	return diags, nil
}

// headingID returns a heading's Kramdown ID: the explicit `{#id}` if one is
// present in a trailing attribute list, otherwise the spec's heading-slug
// algorithm (refs.GenerateAnchorBase) applied to the text with any IAL
// stripped first.
func headingID(text string) string {
	if m := headingExplicitIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	stripped := headingIALPattern.ReplaceAllString(text, "")
	return refs.GenerateAnchorBase(strings.TrimSpace(stripped))
}
