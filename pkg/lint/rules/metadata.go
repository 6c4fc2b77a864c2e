package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
)

// FirstLineHeadingRule checks that files begin with a top-level heading.
type FirstLineHeadingRule struct {
	lint.BaseRule
}

// NewFirstLineHeadingRule creates a new first line heading rule.
func NewFirstLineHeadingRule() *FirstLineHeadingRule {
	return &FirstLineHeadingRule{
		BaseRule: lint.NewBaseRule(
			"MD041",
			"first-line-heading",
			"First line in a file should be a top-level heading",
			[]string{"headings", "metadata"},
			false, // Not auto-fixable.
		),
	}
}

// DefaultEnabled returns false - this rule is opt-in.
func (r *FirstLineHeadingRule) DefaultEnabled() bool {
	return false
}

// Apply checks that the first content in the file is a top-level heading.
func (r *FirstLineHeadingRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || len(ctx.File.Content) == 0 {
		return nil, nil
	}

	requiredLevel := ctx.OptionInt("level", 1)
	frontMatterTitlePattern := ctx.OptionString("front_matter_title", "")

	// Skip front matter to find first content.
	firstContentLine := r.findFirstContentLine(ctx.File)
	if firstContentLine < 1 {
		return nil, nil
	}

	// Check for front matter title if configured.
	if frontMatterTitlePattern != "" {
		hasFrontMatterTitle, err := r.checkFrontMatterTitle(ctx.File, frontMatterTitlePattern)
		// If error or front matter has title, skip first heading check.
		if err == nil && hasFrontMatterTitle {
			return nil, nil
		}
		// Invalid regex is ignored - continue with default heading check behavior.
	}

	// Find the first non-blank line at or after the first content line.
	// This skips any front matter the classifier may have already consumed.
	firstBlockLine := 0
	for ln := firstContentLine; ln <= len(ctx.File.Lines); ln++ {
		if lint.IsBlankLine(ctx.File, ln) {
			continue
		}
		firstBlockLine = ln
		break
	}
	if firstBlockLine == 0 {
		return nil, nil
	}

	cls := ctx.Classification()
	level, endLine, isHeading := r.headingAt(cls, firstBlockLine)

	if !isHeading {
		pos := mdast.SourcePosition{
			StartLine:   firstContentLine,
			StartColumn: 1,
			EndLine:     firstContentLine,
			EndColumn:   1,
		}

		var msg string
		if requiredLevel == 1 {
			msg = "First line should be a top-level heading"
		} else {
			msg = fmt.Sprintf("First line should be an H%d heading", requiredLevel)
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
			WithSeverity(config.SeverityWarning).
			WithSuggestion(fmt.Sprintf("Add an H%d heading at the beginning", requiredLevel)).
			Build()
		return []lint.Diagnostic{diag}, nil
	}

	// Check heading level.
	if level != requiredLevel {
		doc := ctx.Doc()
		pos := mdast.SourcePosition{
			StartLine:   firstBlockLine,
			StartColumn: 1,
			EndLine:     endLine,
			EndColumn:   doc.LineRuneLength(endLine) + 1,
		}
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			fmt.Sprintf("First heading should be H%d, found H%d", requiredLevel, level)).
			WithSeverity(config.SeverityWarning).
			WithSuggestion(fmt.Sprintf("Change to an H%d heading", requiredLevel)).
			Build()
		return []lint.Diagnostic{diag}, nil
	}

	return nil, nil
}

// headingAt reports whether lineNum is the start of an ATX or setext
// heading, along with its level and the heading's last line.
func (r *FirstLineHeadingRule) headingAt(cls *classify.Classification, lineNum int) (level, endLine int, ok bool) {
	line := cls.At(lineNum)
	if line.Kind == classify.AtxHeading {
		return line.Level, lineNum, true
	}
	if lineNum < len(cls.Lines) {
		next := cls.At(lineNum + 1)
		if next.Kind == classify.SetextUnderline {
			return next.Level, lineNum + 1, true
		}
	}
	return 0, 0, false
}

func (r *FirstLineHeadingRule) findFirstContentLine(file *mdast.FileSnapshot) int {
	if file == nil || len(file.Lines) == 0 {
		return 0
	}

	// Check for YAML front matter (---).
	firstLine := lint.LineContent(file, 1)
	if bytes.Equal(bytes.TrimSpace(firstLine), []byte("---")) {
		// Find closing ---.
		for lineNum := 2; lineNum <= len(file.Lines); lineNum++ {
			content := lint.LineContent(file, lineNum)
			if bytes.Equal(bytes.TrimSpace(content), []byte("---")) {
				// Return line after front matter.
				return lineNum + 1
			}
		}
	}

	// No front matter, first line is first content.
	// Skip leading blank lines.
	for lineNum := 1; lineNum <= len(file.Lines); lineNum++ {
		if !lint.IsBlankLine(file, lineNum) {
			return lineNum
		}
	}

	return 1
}

func (r *FirstLineHeadingRule) checkFrontMatterTitle(
	file *mdast.FileSnapshot,
	pattern string,
) (bool, error) {
	if file == nil || len(file.Lines) == 0 {
		return false, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid front matter title pattern: %w", err)
	}

	// Check for YAML front matter.
	firstLine := lint.LineContent(file, 1)
	if !bytes.Equal(bytes.TrimSpace(firstLine), []byte("---")) {
		return false, nil
	}

	// Search within front matter.
	for lineNum := 2; lineNum <= len(file.Lines); lineNum++ {
		content := lint.LineContent(file, lineNum)
		trimmed := bytes.TrimSpace(content)

		// End of front matter.
		if bytes.Equal(trimmed, []byte("---")) {
			break
		}

		// Check if line matches title pattern.
		if re.Match(content) {
			return true, nil
		}
	}

	return false, nil
}

// HeadingBlankLinesRule ensures headings are surrounded by blank lines.
type HeadingBlankLinesRule struct {
	lint.BaseRule
}

// NewHeadingBlankLinesRule creates a new heading blank lines rule.
func NewHeadingBlankLinesRule() *HeadingBlankLinesRule {
	return &HeadingBlankLinesRule{
		BaseRule: lint.NewBaseRule(
			"MD022",
			"heading-blank-lines",
			"Headings should be surrounded by blank lines",
			[]string{"headings", "whitespace"},
			true, // Auto-fixable.
		),
	}
}

// headingStart and headingEnd return a headingLine's first and last source line.
func headingStart(h headingLine) int { return h.lineNum }
func headingEnd(h headingLine) int {
	if h.underlineLine > 0 {
		return h.underlineLine
	}
	return h.lineNum
}

// Apply checks that headings have blank lines around them.
func (r *HeadingBlankLinesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	linesAbove := ctx.OptionInt("lines_above", 1)
	linesBelow := ctx.OptionInt("lines_below", 1)

	headings := collectHeadings(ctx.Classification())
	var diags []lint.Diagnostic

	for _, h := range headings {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		start, end := headingStart(h), headingEnd(h)

		// Check blank lines above (unless it's the first line or follows front matter).
		if start > 1 && linesAbove > 0 {
			blanksBefore := lint.CountBlankLinesBefore(ctx.File, start)
			if blanksBefore < linesAbove {
				// Check if previous line is also a heading (allow no blank between headings).
				if !r.isPreviousLineHeading(ctx.File, headings, start) {
					diag := r.createBlankBeforeDiagnostic(ctx, h, start, blanksBefore, linesAbove)
					diags = append(diags, diag)
				}
			}
		}

		// Check blank lines below (unless it's the last line).
		if end < len(ctx.File.Lines) && linesBelow > 0 {
			blanksAfter := lint.CountBlankLinesAfter(ctx.File, end)
			if blanksAfter < linesBelow {
				// Check if next non-blank line is also a heading.
				if !r.isNextLineHeading(ctx.File, headings, end) {
					diag := r.createBlankAfterDiagnostic(ctx, h, end, blanksAfter, linesBelow)
					diags = append(diags, diag)
				}
			}
		}
	}

	return diags, nil
}

func (r *HeadingBlankLinesRule) isPreviousLineHeading(
	file *mdast.FileSnapshot,
	headings []headingLine,
	lineNum int,
) bool {
	if lineNum <= 1 {
		return false
	}

	// Find the previous non-blank line.
	for ln := lineNum - 1; ln >= 1; ln-- {
		if lint.IsBlankLine(file, ln) {
			continue
		}

		for _, h := range headings {
			if headingEnd(h) == ln {
				return true
			}
		}
		return false
	}

	return false
}

func (r *HeadingBlankLinesRule) isNextLineHeading(
	file *mdast.FileSnapshot,
	headings []headingLine,
	lineNum int,
) bool {
	if lineNum >= len(file.Lines) {
		return false
	}

	// Find the next non-blank line.
	for ln := lineNum + 1; ln <= len(file.Lines); ln++ {
		if lint.IsBlankLine(file, ln) {
			continue
		}

		for _, h := range headings {
			if headingStart(h) == ln {
				return true
			}
		}
		return false
	}

	return false
}

func (r *HeadingBlankLinesRule) createBlankBeforeDiagnostic(
	ctx *lint.RuleContext,
	h headingLine,
	start, current, required int,
) lint.Diagnostic {
	msg := fmt.Sprintf("Heading needs %d blank line(s) above, found %d", required, current)

	// Build fix: insert blank lines before the heading.
	blanksNeeded := required - current
	insertion := strings.Repeat("\n", blanksNeeded)

	line := ctx.File.Lines[start-1]
	builder := ctx.Builder
	builder.Insert(line.StartOffset, insertion)

	return lint.NewDiagnosticAt(r.ID(), ctx.File.Path, headingDiagPosition(ctx, h), msg).
		WithSeverity(config.SeverityWarning).
		WithSuggestion(fmt.Sprintf("Add %d blank line(s) before the heading", blanksNeeded)).
		WithFix(builder).
		Build()
}

func (r *HeadingBlankLinesRule) createBlankAfterDiagnostic(
	ctx *lint.RuleContext,
	h headingLine,
	end, current, required int,
) lint.Diagnostic {
	msg := fmt.Sprintf("Heading needs %d blank line(s) below, found %d", required, current)

	// Build fix: insert blank lines after the heading.
	blanksNeeded := required - current
	insertion := strings.Repeat("\n", blanksNeeded)

	line := ctx.File.Lines[end-1]
	builder := ctx.Builder
	builder.Insert(line.EndOffset, insertion)

	return lint.NewDiagnosticAt(r.ID(), ctx.File.Path, headingDiagPosition(ctx, h), msg).
		WithSeverity(config.SeverityWarning).
		WithSuggestion(fmt.Sprintf("Add %d blank line(s) after the heading", blanksNeeded)).
		WithFix(builder).
		Build()
}

// RequiredHeadingsRule checks that document follows required heading structure.
type RequiredHeadingsRule struct {
	lint.BaseRule
}

// NewRequiredHeadingsRule creates a new required headings rule.
func NewRequiredHeadingsRule() *RequiredHeadingsRule {
	return &RequiredHeadingsRule{
		BaseRule: lint.NewBaseRule(
			"MD043",
			"required-headings",
			"Required heading structure",
			[]string{"headings"},
			false, // Not auto-fixable.
		),
	}
}

// DefaultEnabled returns false - this rule requires configuration.
func (r *RequiredHeadingsRule) DefaultEnabled() bool {
	return false
}

// Apply checks document heading structure against required pattern.
func (r *RequiredHeadingsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	requiredHeadings := r.getRequiredHeadings(ctx)
	if len(requiredHeadings) == 0 {
		return nil, nil
	}

	matchCase := ctx.OptionBool("match_case", false)
	headings := collectHeadings(ctx.Classification())
	actualHeadings := r.buildActualHeadings(ctx, headings)

	return r.matchHeadings(ctx, headings, actualHeadings, requiredHeadings, matchCase)
}

func (r *RequiredHeadingsRule) getRequiredHeadings(ctx *lint.RuleContext) []string {
	headingsOption := ctx.Option("headings", nil)
	if headingsOption == nil {
		return nil
	}

	switch h := headingsOption.(type) {
	case []string:
		return h
	case []interface{}:
		var result []string
		for _, item := range h {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

func (r *RequiredHeadingsRule) buildActualHeadings(ctx *lint.RuleContext, headings []headingLine) []string {
	result := make([]string, 0, len(headings))
	for _, h := range headings {
		text := headingLineText(ctx, h)
		result = append(result, fmt.Sprintf("%s %s", strings.Repeat("#", h.level), text))
	}
	return result
}

func (r *RequiredHeadingsRule) matchHeadings(
	ctx *lint.RuleContext,
	headings []headingLine,
	actualHeadings, requiredHeadings []string,
	matchCase bool,
) ([]lint.Diagnostic, error) {
	reqIdx, actIdx := 0, 0

	for reqIdx < len(requiredHeadings) && actIdx < len(actualHeadings) {
		required := requiredHeadings[reqIdx]

		switch required {
		case "*", "+":
			reqIdx, actIdx = r.handleWildcard(required, reqIdx, actIdx, actualHeadings, requiredHeadings, matchCase)
		case "?":
			actIdx++
			reqIdx++
		default:
			if r.headingMatches(actualHeadings[actIdx], required, matchCase) {
				actIdx++
				reqIdx++
				continue
			}
			return r.createMismatchDiagnostic(ctx, headings, actualHeadings, required, actIdx), nil
		}
	}

	return r.checkRemainingRequired(ctx, requiredHeadings, reqIdx)
}

func (r *RequiredHeadingsRule) handleWildcard(
	pattern string,
	reqIdx, actIdx int,
	actualHeadings, requiredHeadings []string,
	matchCase bool,
) (int, int) {
	if pattern == "+" {
		actIdx++ // Must match at least one
	}
	reqIdx++

	if reqIdx >= len(requiredHeadings) {
		return reqIdx, len(actualHeadings)
	}

	nextRequired := requiredHeadings[reqIdx]
	for actIdx < len(actualHeadings) {
		if r.headingMatches(actualHeadings[actIdx], nextRequired, matchCase) {
			break
		}
		actIdx++
	}
	return reqIdx, actIdx
}

func (r *RequiredHeadingsRule) createMismatchDiagnostic(
	ctx *lint.RuleContext,
	headings []headingLine,
	actualHeadings []string,
	required string,
	actIdx int,
) []lint.Diagnostic {
	pos := r.getPositionForIndex(ctx, headings, actIdx)
	msg := r.getMismatchMessage(actualHeadings, required, actIdx)

	diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
		WithSeverity(config.SeverityWarning).
		WithSuggestion("Update heading to match required structure").
		Build()
	return []lint.Diagnostic{diag}
}

func (r *RequiredHeadingsRule) getPositionForIndex(
	ctx *lint.RuleContext,
	headings []headingLine,
	actIdx int,
) mdast.SourcePosition {
	if actIdx < len(headings) {
		return headingDiagPosition(ctx, headings[actIdx])
	}
	return mdast.SourcePosition{
		StartLine:   len(ctx.File.Lines),
		StartColumn: 1,
		EndLine:     len(ctx.File.Lines),
		EndColumn:   1,
	}
}

func (r *RequiredHeadingsRule) getMismatchMessage(actualHeadings []string, required string, actIdx int) string {
	if actIdx < len(actualHeadings) {
		return fmt.Sprintf("Expected heading %q, found %q", required, actualHeadings[actIdx])
	}
	return fmt.Sprintf("Missing required heading %q", required)
}

func (r *RequiredHeadingsRule) checkRemainingRequired(
	ctx *lint.RuleContext,
	requiredHeadings []string,
	reqIdx int,
) ([]lint.Diagnostic, error) {
	for reqIdx < len(requiredHeadings) {
		required := requiredHeadings[reqIdx]
		if required != "*" && required != "+" && required != "?" {
			pos := mdast.SourcePosition{
				StartLine:   len(ctx.File.Lines),
				StartColumn: 1,
				EndLine:     len(ctx.File.Lines),
				EndColumn:   1,
			}
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
				fmt.Sprintf("Missing required heading %q", required)).
				WithSeverity(config.SeverityWarning).
				WithSuggestion("Add required heading").
				Build()
			return []lint.Diagnostic{diag}, nil
		}
		reqIdx++
	}
	return nil, nil
}

func (r *RequiredHeadingsRule) headingMatches(actual, required string, matchCase bool) bool {
	if matchCase {
		return actual == required
	}
	return strings.EqualFold(actual, required)
}

// ProperNamesRule checks for correct capitalization of proper names.
type ProperNamesRule struct {
	lint.BaseRule
}

// NewProperNamesRule creates a new proper names rule.
func NewProperNamesRule() *ProperNamesRule {
	return &ProperNamesRule{
		BaseRule: lint.NewBaseRule(
			"MD044",
			"proper-names",
			"Proper names should have the correct capitalization",
			[]string{"spelling"},
			true, // Auto-fixable.
		),
	}
}

// DefaultEnabled returns false - this rule requires configuration.
func (r *ProperNamesRule) DefaultEnabled() bool {
	return false
}

// Apply checks for incorrect capitalization of proper names.
func (r *ProperNamesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	// Get proper names configuration
	namesOption := ctx.Option("names", nil)
	if namesOption == nil {
		return nil, nil // No names configured
	}

	var properNames []string
	switch n := namesOption.(type) {
	case []string:
		properNames = n
	case []interface{}:
		for _, item := range n {
			if s, ok := item.(string); ok {
				properNames = append(properNames, s)
			}
		}
	}

	if len(properNames) == 0 {
		return nil, nil
	}

	includeCodeBlocks := ctx.OptionBool("code_blocks", true)
	includeHTMLElements := ctx.OptionBool("html_elements", true)

	var diags []lint.Diagnostic

	// Build patterns for each proper name
	type namePattern struct {
		correct string
		pattern *regexp.Regexp
	}
	patterns := make([]namePattern, 0, len(properNames))

	for _, name := range properNames {
		// Create case-insensitive pattern that matches whole words
		escaped := regexp.QuoteMeta(name)
		pattern, err := regexp.Compile(`(?i)\b` + escaped + `\b`)
		if err != nil {
			continue
		}
		patterns = append(patterns, namePattern{correct: name, pattern: pattern})
	}

	cls := ctx.Classification()
	htmlBlocks := collectHTMLBlocks(cls)

	// Check each line
	for lineNum := 1; lineNum <= len(ctx.File.Lines); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		// Skip code blocks if configured
		if !includeCodeBlocks && inCodeBlock(cls.At(lineNum).Kind) {
			continue
		}

		// Skip HTML if configured
		if !includeHTMLElements && r.isLineInHTML(htmlBlocks, lineNum) {
			continue
		}

		lineContent := lint.LineContent(ctx.File, lineNum)

		for _, np := range patterns {
			matches := np.pattern.FindAllIndex(lineContent, -1)
			for _, match := range matches {
				found := string(lineContent[match[0]:match[1]])

				// Skip if already correct
				if found == np.correct {
					continue
				}

				pos := mdast.SourcePosition{
					StartLine:   lineNum,
					StartColumn: match[0] + 1,
					EndLine:     lineNum,
					EndColumn:   match[1] + 1,
				}

				line := ctx.File.Lines[lineNum-1]

				// Build fix
				builder := ctx.Builder
				builder.ReplaceRange(
					line.StartOffset+match[0],
					line.StartOffset+match[1],
					np.correct,
				)

				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
					fmt.Sprintf("Proper name %q should be %q", found, np.correct)).
					WithSeverity(config.SeverityWarning).
					WithSuggestion(fmt.Sprintf("Use %q", np.correct)).
					WithFix(builder).
					Build()
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

func (r *ProperNamesRule) isLineInHTML(htmlBlocks []htmlBlockRun, lineNum int) bool {
	for _, block := range htmlBlocks {
		if lineNum >= block.startLine && lineNum <= block.endLine {
			return true
		}
	}
	return false
}
