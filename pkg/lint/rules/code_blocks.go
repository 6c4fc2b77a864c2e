package rules

import (
	"fmt"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/langdetect"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
)

// codeBlock is one fenced or indented code block as seen by the classifier:
// a run of FenceOpen/FenceBody/FenceClose lines, or a run of IndentedCode
// lines. All four rules in this file walk the same list instead of each
// re-deriving block boundaries from the AST.
type codeBlock struct {
	fenced bool

	openLine  int // FenceOpen line, or first IndentedCode line
	closeLine int // FenceClose line, or last IndentedCode line; 0 if fence never closed

	contentStart int // first body line (may be > contentEnd if the block is empty)
	contentEnd   int

	fenceChar   byte
	fenceWidth  int
	fenceIndent int
	info        string

	closeFenceWidth  int
	closeFenceIndent int
}

// collectCodeBlocks scans a classification once and returns every code
// block in document order, fenced and indented alike.
func collectCodeBlocks(cls *classify.Classification) []codeBlock {
	var blocks []codeBlock
	n := len(cls.Lines)

	for i := 1; i <= n; {
		line := cls.At(i)
		switch line.Kind {
		case classify.FenceOpen:
			cb := codeBlock{
				fenced:      true,
				openLine:    i,
				fenceChar:   line.FenceChar,
				fenceWidth:  line.FenceWidth,
				fenceIndent: line.FenceIndent,
				info:        line.Info,
			}
			j := i + 1
			cb.contentStart = j
			for j <= n && cls.At(j).Kind == classify.FenceBody {
				j++
			}
			cb.contentEnd = j - 1
			if j <= n && cls.At(j).Kind == classify.FenceClose {
				closeLine := cls.At(j)
				cb.closeLine = j
				cb.closeFenceWidth = closeLine.FenceWidth
				cb.closeFenceIndent = closeLine.FenceIndent
				i = j + 1
			} else {
				i = j
			}
			blocks = append(blocks, cb)

		case classify.IndentedCode:
			start := i
			j := i
			for j <= n && cls.At(j).Kind == classify.IndentedCode {
				j++
			}
			blocks = append(blocks, codeBlock{
				fenced:       false,
				openLine:     start,
				closeLine:    j - 1,
				contentStart: start,
				contentEnd:   j - 1,
			})
			i = j

		default:
			i++
		}
	}
	return blocks
}

// blockEndLine returns the last line a code block occupies, for diagnostics
// and fixes that need to anchor a range.
func (cb codeBlock) blockEndLine() int {
	if cb.closeLine > 0 {
		return cb.closeLine
	}
	if cb.contentEnd > 0 {
		return cb.contentEnd
	}
	return cb.openLine
}

func blockDiagPosition(ctx *lint.RuleContext, cb codeBlock) mdast.SourcePosition {
	doc := ctx.Doc()
	end := cb.blockEndLine()
	return mdast.SourcePosition{
		StartLine:   cb.openLine,
		StartColumn: 1,
		EndLine:     end,
		EndColumn:   doc.LineRuneLength(end) + 1,
	}
}

// CodeBlockLanguageRule checks that fenced code blocks have a language specified.
type CodeBlockLanguageRule struct {
	lint.BaseRule
}

// NewCodeBlockLanguageRule creates a new code block language rule.
func NewCodeBlockLanguageRule() *CodeBlockLanguageRule {
	return &CodeBlockLanguageRule{
		BaseRule: lint.NewBaseRule(
			"MD040",
			"fenced-code-language",
			"Fenced code blocks should have a language specified",
			[]string{"code"},
			true, // Auto-fixable via language detection.
		),
	}
}

// Apply checks that fenced code blocks have an info string. Indented code
// blocks have no fence to annotate and are skipped (spec.md §4.2's
// IndentedCode kind carries no Info field).
func (r *CodeBlockLanguageRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	allowedLanguages := ctx.Option("allowed_languages", nil)
	var allowedSet map[string]bool
	if langs, ok := allowedLanguages.([]any); ok && len(langs) > 0 {
		allowedSet = make(map[string]bool)
		for _, l := range langs {
			if s, ok := l.(string); ok {
				allowedSet[strings.ToLower(s)] = true
			}
		}
	}

	blocks := collectCodeBlocks(ctx.Classification())
	var diags []lint.Diagnostic

	for _, cb := range blocks {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if !cb.fenced {
			continue
		}

		fields := strings.Fields(cb.info)
		langName := ""
		if len(fields) > 0 {
			langName = strings.ToLower(fields[0])
		}

		if langName == "" {
			pos := blockDiagPosition(ctx, cb)
			diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
				"Fenced code block has no language specified").
				WithSeverity(config.SeverityWarning).
				WithSuggestion("Add a language identifier after the opening fence")

			if fixer := r.buildLanguageFix(ctx.File, cb); fixer != nil {
				diagBuilder = diagBuilder.WithFix(fixer)
			}

			diags = append(diags, diagBuilder.Build())
			continue
		}

		if allowedSet != nil && !allowedSet[langName] {
			pos := blockDiagPosition(ctx, cb)
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
				fmt.Sprintf("Language '%s' is not in the allowed list", langName)).
				WithSeverity(config.SeverityWarning).
				WithSuggestion("Use one of the allowed language identifiers").
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// buildLanguageFix detects the language from the block's body and creates a
// fix inserting it right after the opening fence's run of backtick/tilde
// characters.
func (r *CodeBlockLanguageRule) buildLanguageFix(file *mdast.FileSnapshot, cb codeBlock) *fix.EditBuilder {
	if cb.contentEnd < cb.contentStart {
		return nil
	}
	if cb.contentStart < 1 || cb.contentEnd > len(file.Lines) {
		return nil
	}

	startOffset := file.Lines[cb.contentStart-1].StartOffset
	endOffset := file.Lines[cb.contentEnd-1].NewlineStart
	content := file.Content[startOffset:endOffset]

	detectedLang := langdetect.Detect(content)
	if detectedLang == "text" {
		return nil // Don't insert "text" as language.
	}

	if cb.openLine < 1 || cb.openLine > len(file.Lines) {
		return nil
	}
	fenceLineInfo := file.Lines[cb.openLine-1]
	insertOffset := fenceLineInfo.StartOffset + cb.fenceIndent + cb.fenceWidth

	builder := fix.NewEditBuilder()
	builder.Insert(insertOffset, detectedLang)
	return builder
}

// CodeBlockStyleRule enforces consistent code block style (fenced vs indented).
type CodeBlockStyleRule struct {
	lint.BaseRule
}

// NewCodeBlockStyleRule creates a new code block style rule.
func NewCodeBlockStyleRule() *CodeBlockStyleRule {
	return &CodeBlockStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD046",
			"code-block-style",
			"Code block style should be consistent",
			[]string{"code", "style"},
			false, // Not auto-fixable (complex transformation).
		),
	}
}

// CodeBlockStyle represents the style of code blocks.
type CodeBlockStyle string

const (
	// CodeBlockFenced uses fenced code blocks (```).
	CodeBlockFenced CodeBlockStyle = "fenced"
	// CodeBlockIndented uses indented code blocks.
	CodeBlockIndented CodeBlockStyle = "indented"
	// CodeBlockConsistent uses whatever style is first encountered.
	CodeBlockConsistent CodeBlockStyle = "consistent"
)

// Apply checks that code blocks use a consistent style.
func (r *CodeBlockStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := CodeBlockStyle(ctx.OptionString("style", string(CodeBlockFenced)))
	effectiveStyle := configStyle
	if configStyle == CodeBlockConsistent {
		effectiveStyle = "" // Will be set from first code block.
	}

	blocks := collectCodeBlocks(ctx.Classification())
	var diags []lint.Diagnostic

	for _, cb := range blocks {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		detectedStyle := CodeBlockIndented
		if cb.fenced {
			detectedStyle = CodeBlockFenced
		}

		if effectiveStyle == "" {
			effectiveStyle = detectedStyle
			continue
		}

		if detectedStyle != effectiveStyle {
			msg := fmt.Sprintf("Code block style '%s' does not match expected '%s'",
				detectedStyle, effectiveStyle)

			pos := blockDiagPosition(ctx, cb)
			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
				WithSeverity(config.SeverityWarning).
				WithSuggestion(fmt.Sprintf("Use %s code blocks", effectiveStyle)).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// CodeFenceStyleRule enforces consistent code fence style (backtick vs tilde).
type CodeFenceStyleRule struct {
	lint.BaseRule
}

// NewCodeFenceStyleRule creates a new code fence style rule.
func NewCodeFenceStyleRule() *CodeFenceStyleRule {
	return &CodeFenceStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD048",
			"code-fence-style",
			"Code fence style should be consistent",
			[]string{"code", "style"},
			true, // Auto-fixable.
		),
	}
}

// FenceStyle represents the style of code fences.
type FenceStyle string

const (
	// FenceBacktick uses backticks (```).
	FenceBacktick FenceStyle = "backtick"
	// FenceTilde uses tildes (~~~).
	FenceTilde FenceStyle = "tilde"
	// FenceConsistent uses whatever style is first encountered.
	FenceConsistent FenceStyle = "consistent"
)

// Apply checks that fenced code blocks use a consistent fence style.
func (r *CodeFenceStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := FenceStyle(ctx.OptionString("style", string(FenceBacktick)))
	effectiveStyle := configStyle
	effectiveChar := byte('`')

	switch configStyle {
	case FenceConsistent:
		effectiveStyle = "" // Will be set from first fence.
		effectiveChar = 0
	case FenceTilde:
		effectiveChar = '~'
	case FenceBacktick:
		// Default values already set.
	}

	blocks := collectCodeBlocks(ctx.Classification())
	var diags []lint.Diagnostic

	for _, cb := range blocks {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if !cb.fenced || cb.fenceChar == 0 {
			continue
		}

		detectedStyle := FenceBacktick
		if cb.fenceChar == '~' {
			detectedStyle = FenceTilde
		}

		if effectiveStyle == "" {
			effectiveStyle = detectedStyle
			effectiveChar = cb.fenceChar
			continue
		}

		if cb.fenceChar != effectiveChar {
			msg := fmt.Sprintf("Code fence style '%s' does not match expected '%s'",
				detectedStyle, effectiveStyle)

			builder := r.buildFenceFix(ctx.File, cb, effectiveChar)
			pos := blockDiagPosition(ctx, cb)

			diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
				WithSeverity(config.SeverityWarning).
				WithSuggestion(fmt.Sprintf("Use %s for code fences", effectiveStyle))

			if builder != nil {
				diagBuilder = diagBuilder.WithFix(builder)
			}

			diags = append(diags, diagBuilder.Build())
		}
	}

	return diags, nil
}

// buildFenceFix rewrites the opening fence's (and, if present, the closing
// fence's) run of backtick/tilde characters to expectedChar, preserving
// each fence's own width and indent as recorded by the classifier.
func (r *CodeFenceStyleRule) buildFenceFix(file *mdast.FileSnapshot, cb codeBlock, expectedChar byte) *fix.EditBuilder {
	if file == nil || cb.openLine < 1 || cb.openLine > len(file.Lines) {
		return nil
	}

	builder := fix.NewEditBuilder()

	openInfo := file.Lines[cb.openLine-1]
	builder.ReplaceRange(
		openInfo.StartOffset+cb.fenceIndent,
		openInfo.StartOffset+cb.fenceIndent+cb.fenceWidth,
		strings.Repeat(string(expectedChar), cb.fenceWidth),
	)

	if cb.closeLine > 0 && cb.closeLine != cb.openLine && cb.closeLine <= len(file.Lines) {
		closeInfo := file.Lines[cb.closeLine-1]
		width := cb.closeFenceWidth
		if width < 3 {
			width = cb.fenceWidth
		}
		builder.ReplaceRange(
			closeInfo.StartOffset+cb.closeFenceIndent,
			closeInfo.StartOffset+cb.closeFenceIndent+width,
			strings.Repeat(string(expectedChar), width),
		)
	}

	return builder
}

// CommandsShowOutputRule checks for unnecessary dollar signs in shell code blocks.
type CommandsShowOutputRule struct {
	lint.BaseRule
}

// NewCommandsShowOutputRule creates a new commands-show-output rule.
func NewCommandsShowOutputRule() *CommandsShowOutputRule {
	return &CommandsShowOutputRule{
		BaseRule: lint.NewBaseRule(
			"MD014",
			"commands-show-output",
			"Dollar signs used before commands without showing output",
			[]string{"code"},
			true, // Auto-fixable
		),
	}
}

// Apply checks for unnecessary dollar signs in shell code blocks.
func (r *CommandsShowOutputRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	blocks := collectCodeBlocks(ctx.Classification())
	var diags []lint.Diagnostic

	for _, cb := range blocks {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if diag := r.checkCodeBlock(ctx, cb); diag != nil {
			diags = append(diags, *diag)
		}
	}

	return diags, nil
}

func (r *CommandsShowOutputRule) checkCodeBlock(ctx *lint.RuleContext, cb codeBlock) *lint.Diagnostic {
	if !cb.fenced || !r.isShellCodeBlock(cb) {
		return nil
	}

	contentLines := r.getCodeBlockContentLines(ctx.File, cb)
	if len(contentLines) == 0 {
		return nil
	}

	if !r.hasOnlyDollarCommands(contentLines) {
		return nil
	}

	builder := r.buildDollarRemovalFix(contentLines)
	pos := blockDiagPosition(ctx, cb)
	diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
		"Dollar signs used before commands without showing output").
		WithSeverity(config.SeverityWarning).
		WithSuggestion("Remove dollar signs from command-only code blocks").
		WithFix(builder).
		Build()
	return &diag
}

func (r *CommandsShowOutputRule) isShellCodeBlock(cb codeBlock) bool {
	info := strings.ToLower(strings.TrimSpace(cb.info))
	return info == "" || info == "sh" || info == "shell" || info == "bash" ||
		info == "zsh" || info == "console" || info == "terminal"
}

func (r *CommandsShowOutputRule) startsWithDollar(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "$ ") || strings.HasPrefix(trimmed, "$\t") || trimmed == "$"
}

func (r *CommandsShowOutputRule) hasOnlyDollarCommands(lines []codeLineInfo) bool {
	hasAnyCommand := false

	for lineIdx, line := range lines {
		trimmed := strings.TrimSpace(line.content)
		if trimmed == "" {
			continue
		}

		if !r.startsWithDollar(trimmed) {
			return false
		}
		hasAnyCommand = true

		// Check if there's output after this command
		if r.hasOutputAfter(lines, lineIdx) {
			return false
		}
	}

	return hasAnyCommand
}

func (r *CommandsShowOutputRule) hasOutputAfter(lines []codeLineInfo, startIdx int) bool {
	for j := startIdx + 1; j < len(lines); j++ {
		nextTrimmed := strings.TrimSpace(lines[j].content)
		if nextTrimmed == "" {
			continue
		}
		// If next non-empty line doesn't start with $, it's output
		return !r.startsWithDollar(nextTrimmed)
	}
	return false
}

func (r *CommandsShowOutputRule) buildDollarRemovalFix(lines []codeLineInfo) *fix.EditBuilder {
	builder := fix.NewEditBuilder()
	for _, line := range lines {
		trimmed := strings.TrimSpace(line.content)
		if trimmed == "" {
			continue
		}

		dollarIdx := strings.Index(line.content, "$")
		if dollarIdx < 0 {
			continue
		}

		removeEnd := dollarIdx + 1
		if removeEnd < len(line.content) && (line.content[removeEnd] == ' ' || line.content[removeEnd] == '\t') {
			removeEnd++
		}
		builder.Delete(line.startOffset+dollarIdx, line.startOffset+removeEnd)
	}
	return builder
}

type codeLineInfo struct {
	content     string
	startOffset int
	lineNum     int
}

// getCodeBlockContentLines returns the body lines of a fenced code block,
// excluding the fence lines themselves.
func (r *CommandsShowOutputRule) getCodeBlockContentLines(file *mdast.FileSnapshot, cb codeBlock) []codeLineInfo {
	var lines []codeLineInfo

	if cb.contentEnd < cb.contentStart {
		return nil
	}

	for lineNum := cb.contentStart; lineNum <= cb.contentEnd && lineNum <= len(file.Lines); lineNum++ {
		lineInfo := file.Lines[lineNum-1]
		content := string(file.Content[lineInfo.StartOffset:lineInfo.NewlineStart])
		lines = append(lines, codeLineInfo{
			content:     content,
			startOffset: lineInfo.StartOffset,
			lineNum:     lineNum,
		})
	}

	return lines
}
