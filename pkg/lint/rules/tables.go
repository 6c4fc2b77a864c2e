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
)

// tableBlock is one GFM table as seen by the classifier: a TableDelimiter
// line, the TableHeader line immediately above it (if any), and the run of
// TableBody lines that follow.
type tableBlock struct {
	headerLine    int // 0 if the delimiter has no header row above it
	delimiterLine int
	bodyStart     int
	bodyEnd       int // < bodyStart if the table has no body rows
}

func collectTables(cls *classify.Classification) []tableBlock {
	var tables []tableBlock
	n := len(cls.Lines)

	for i := 1; i <= n; {
		if cls.At(i).Kind != classify.TableDelimiter {
			i++
			continue
		}
		tb := tableBlock{delimiterLine: i}
		if i > 1 && cls.At(i-1).Kind == classify.TableHeader {
			tb.headerLine = i - 1
		}
		j := i + 1
		tb.bodyStart = j
		for j <= n && cls.At(j).Kind == classify.TableBody {
			j++
		}
		tb.bodyEnd = j - 1
		tables = append(tables, tb)
		i = j
	}
	return tables
}

func (tb tableBlock) firstLine() int {
	if tb.headerLine > 0 {
		return tb.headerLine
	}
	return tb.delimiterLine
}

func (tb tableBlock) lastLine() int {
	if tb.bodyEnd >= tb.bodyStart {
		return tb.bodyEnd
	}
	return tb.delimiterLine
}

// TablePipeStyleRule checks for consistent leading/trailing pipe style in tables.
type TablePipeStyleRule struct {
	lint.BaseRule
}

// NewTablePipeStyleRule creates a new table pipe style rule.
func NewTablePipeStyleRule() *TablePipeStyleRule {
	return &TablePipeStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD055",
			"table-pipe-style",
			"Table pipe style should be consistent",
			[]string{"table"},
			false, // Not auto-fixable (complex).
		),
	}
}

// PipeStyle represents the pipe style of tables.
type PipeStyle string

const (
	// PipeStyleConsistent uses whatever style is first encountered.
	PipeStyleConsistent PipeStyle = "consistent"
	// PipeStyleLeadingAndTrailing requires pipes at both ends.
	PipeStyleLeadingAndTrailing PipeStyle = "leading_and_trailing"
	// PipeStyleLeadingOnly requires pipe at start only.
	PipeStyleLeadingOnly PipeStyle = "leading_only"
	// PipeStyleTrailingOnly requires pipe at end only.
	PipeStyleTrailingOnly PipeStyle = "trailing_only"
	// PipeStyleNoLeadingOrTrailing requires no pipes at ends.
	PipeStyleNoLeadingOrTrailing PipeStyle = "no_leading_or_trailing"
)

// Apply checks table pipe style consistency.
func (r *TablePipeStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	configStyle := PipeStyle(ctx.OptionString("style", string(PipeStyleConsistent)))
	var expectedStyle PipeStyle
	if configStyle != PipeStyleConsistent {
		expectedStyle = configStyle
	}

	var diags []lint.Diagnostic

	for _, tb := range collectTables(ctx.Classification()) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		for rowNum := tb.firstLine(); rowNum <= tb.lastLine(); rowNum++ {
			rowContent := lint.LineContent(ctx.File, rowNum)
			trimmed := bytes.TrimSpace(rowContent)
			if len(trimmed) == 0 {
				continue
			}

			hasLeading := trimmed[0] == '|'
			hasTrailing := trimmed[len(trimmed)-1] == '|'

			var detectedStyle PipeStyle
			switch {
			case hasLeading && hasTrailing:
				detectedStyle = PipeStyleLeadingAndTrailing
			case hasLeading:
				detectedStyle = PipeStyleLeadingOnly
			case hasTrailing:
				detectedStyle = PipeStyleTrailingOnly
			default:
				detectedStyle = PipeStyleNoLeadingOrTrailing
			}

			if expectedStyle == "" {
				expectedStyle = detectedStyle
				continue
			}

			if detectedStyle != expectedStyle {
				pos := mdast.SourcePosition{
					StartLine:   rowNum,
					StartColumn: 1,
					EndLine:     rowNum,
					EndColumn:   len(rowContent),
				}
				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
					fmt.Sprintf("Table row pipe style '%s' does not match expected '%s'", detectedStyle, expectedStyle)).
					WithSeverity(config.SeverityWarning).
					WithSuggestion(fmt.Sprintf("Use %s pipe style for all table rows", expectedStyle)).
					Build()
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

// TableColumnCountRule checks for consistent column counts in GFM tables.
type TableColumnCountRule struct {
	lint.BaseRule
}

// NewTableColumnCountRule creates a new table column count rule.
func NewTableColumnCountRule() *TableColumnCountRule {
	return &TableColumnCountRule{
		BaseRule: lint.NewBaseRule(
			"MD056",
			"table-column-count",
			"Table rows should have consistent column counts",
			[]string{"table"},
			false, // Not auto-fixable.
		),
	}
}

// DefaultEnabled returns true only for GFM flavor.
func (r *TableColumnCountRule) DefaultEnabled() bool {
	return true
}

// Apply checks table column consistency. Skipped if not GFM flavor.
func (r *TableColumnCountRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	var diags []lint.Diagnostic

	for _, tb := range collectTables(ctx.Classification()) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		delimContent := lint.LineContent(ctx.File, tb.delimiterLine)
		delimColCount := countTableColumns(delimContent)

		if tb.headerLine > 0 {
			headerContent := lint.LineContent(ctx.File, tb.headerLine)
			headerColCount := countTableColumns(headerContent)
			if headerColCount != delimColCount {
				pos := mdast.SourcePosition{
					StartLine:   tb.headerLine,
					StartColumn: 1,
					EndLine:     tb.headerLine,
					EndColumn:   len(headerContent),
				}
				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
					fmt.Sprintf("Table header has %d columns, delimiter has %d", headerColCount, delimColCount)).
					WithSeverity(config.SeverityWarning).
					WithSuggestion("Ensure all rows have the same number of columns").
					Build()
				diags = append(diags, diag)
			}
		}

		for dataLine := tb.bodyStart; dataLine <= tb.bodyEnd; dataLine++ {
			dataContent := lint.LineContent(ctx.File, dataLine)
			dataColCount := countTableColumns(dataContent)
			if dataColCount != delimColCount {
				pos := mdast.SourcePosition{
					StartLine:   dataLine,
					StartColumn: 1,
					EndLine:     dataLine,
					EndColumn:   len(dataContent),
				}
				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
					fmt.Sprintf("Table row has %d columns, expected %d", dataColCount, delimColCount)).
					WithSeverity(config.SeverityWarning).
					WithSuggestion("Ensure all rows have the same number of columns").
					Build()
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

// TableAlignmentRule validates table delimiter row format.
type TableAlignmentRule struct {
	lint.BaseRule
}

// NewTableAlignmentRule creates a new table alignment rule.
func NewTableAlignmentRule() *TableAlignmentRule {
	return &TableAlignmentRule{
		BaseRule: lint.NewBaseRule(
			"MDL003",
			"table-alignment",
			"Table delimiter row should be properly formatted",
			[]string{"tables", "gfm"},
			true, // Auto-fixable.
		),
	}
}

// DefaultEnabled returns true only for GFM flavor.
func (r *TableAlignmentRule) DefaultEnabled() bool {
	return true
}

// Apply checks table delimiter row formatting.
func (r *TableAlignmentRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	minDashes := ctx.OptionInt("min_dashes", 3)
	cls := ctx.Classification()
	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= len(cls.Lines); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if cls.At(lineNum).Kind != classify.TableDelimiter {
			continue
		}

		content := lint.LineContent(ctx.File, lineNum)
		cells := splitTableCells(content)
		for _, cell := range cells {
			cell = bytes.TrimSpace(cell)
			if len(cell) == 0 {
				continue
			}

			dashes := 0
			for _, ch := range cell {
				if ch == '-' {
					dashes++
				}
			}

			if dashes < minDashes {
				pos := mdast.SourcePosition{
					StartLine:   lineNum,
					StartColumn: 1,
					EndLine:     lineNum,
					EndColumn:   len(content),
				}

				builder := r.buildAlignmentFix(ctx.File, lineNum, minDashes)

				diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
					fmt.Sprintf("Table delimiter has fewer than %d dashes", minDashes)).
					WithSeverity(config.SeverityWarning).
					WithSuggestion(fmt.Sprintf("Use at least %d dashes in delimiter cells", minDashes))

				if builder != nil {
					diagBuilder = diagBuilder.WithFix(builder)
				}

				diags = append(diags, diagBuilder.Build())
				break // One diagnostic per line.
			}
		}
	}

	return diags, nil
}

func (r *TableAlignmentRule) buildAlignmentFix(
	file *mdast.FileSnapshot,
	lineNum int,
	minDashes int,
) *fix.EditBuilder {
	if file == nil || lineNum < 1 || lineNum > len(file.Lines) {
		return nil
	}

	content := lint.LineContent(file, lineNum)
	cells := splitTableCells(content)

	newCells := make([]string, 0, len(cells))
	for _, cell := range cells {
		cell = bytes.TrimSpace(cell)
		if len(cell) == 0 {
			newCells = append(newCells, strings.Repeat("-", minDashes))
			continue
		}

		leftAlign := cell[0] == ':'
		rightAlign := cell[len(cell)-1] == ':'

		dashes := strings.Repeat("-", minDashes)
		var newCell string
		switch {
		case leftAlign && rightAlign:
			newCell = ":" + dashes + ":"
		case leftAlign:
			newCell = ":" + dashes
		case rightAlign:
			newCell = dashes + ":"
		default:
			newCell = dashes
		}
		newCells = append(newCells, newCell)
	}

	newContent := "| " + strings.Join(newCells, " | ") + " |"
	line := file.Lines[lineNum-1]

	builder := fix.NewEditBuilder()
	builder.ReplaceRange(line.StartOffset, line.NewlineStart, newContent)

	return builder
}

// TableBlankLinesRule ensures blank lines around tables.
type TableBlankLinesRule struct {
	lint.BaseRule
}

// NewTableBlankLinesRule creates a new table blank lines rule.
func NewTableBlankLinesRule() *TableBlankLinesRule {
	return &TableBlankLinesRule{
		BaseRule: lint.NewBaseRule(
			"MD058",
			"blanks-around-tables",
			"Tables should be surrounded by blank lines",
			[]string{"table"},
			true, // Auto-fixable.
		),
	}
}

// DefaultEnabled returns true only for GFM flavor.
func (r *TableBlankLinesRule) DefaultEnabled() bool {
	return true
}

// DefaultSeverity returns info level for this rule.
func (r *TableBlankLinesRule) DefaultSeverity() config.Severity {
	return config.SeverityInfo
}

// Apply checks for blank lines around tables.
func (r *TableBlankLinesRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	cls := ctx.Classification()
	var diags []lint.Diagnostic

	for _, tb := range collectTables(cls) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		tableStart := tb.firstLine()
		tableEnd := tb.lastLine()

		if tableStart > 1 && cls.At(tableStart-1).Kind != classify.Blank {
			pos := mdast.SourcePosition{
				StartLine:   tableStart,
				StartColumn: 1,
				EndLine:     tableStart,
				EndColumn:   1,
			}

			builder := fix.NewEditBuilder()
			line := ctx.File.Lines[tableStart-1]
			builder.Insert(line.StartOffset, "\n")

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
				"Missing blank line before table").
				WithSeverity(config.SeverityInfo).
				WithSuggestion("Add a blank line before the table").
				WithFix(builder).
				Build()
			diags = append(diags, diag)
		}

		if tableEnd < len(ctx.File.Lines) && cls.At(tableEnd+1).Kind != classify.Blank {
			pos := mdast.SourcePosition{
				StartLine:   tableEnd,
				StartColumn: 1,
				EndLine:     tableEnd,
				EndColumn:   1,
			}

			builder := fix.NewEditBuilder()
			line := ctx.File.Lines[tableEnd-1]
			builder.Insert(line.EndOffset, "\n")

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
				"Missing blank line after table").
				WithSeverity(config.SeverityInfo).
				WithSuggestion("Add a blank line after the table").
				WithFix(builder).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// countTableColumns counts the number of columns in a table row.
func countTableColumns(content []byte) int {
	cells := splitTableCells(content)
	return len(cells)
}

// splitTableCells splits a table row into cells.
func splitTableCells(content []byte) [][]byte {
	trimmed := bytes.TrimSpace(content)

	if len(trimmed) > 0 && trimmed[0] == '|' {
		trimmed = trimmed[1:]
	}
	if len(trimmed) > 0 && trimmed[len(trimmed)-1] == '|' {
		trimmed = trimmed[:len(trimmed)-1]
	}

	if len(trimmed) == 0 {
		return nil
	}

	return bytes.Split(trimmed, []byte("|"))
}

// TableColumnStyleRule checks for consistent column spacing style in tables.
type TableColumnStyleRule struct {
	lint.BaseRule
}

// NewTableColumnStyleRule creates a new table column style rule.
func NewTableColumnStyleRule() *TableColumnStyleRule {
	return &TableColumnStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD060",
			"table-column-style",
			"Table column style should be consistent",
			[]string{"table"},
			false, // Not auto-fixable (style preference).
		),
	}
}

// DefaultEnabled returns false - this is an optional style rule.
func (r *TableColumnStyleRule) DefaultEnabled() bool {
	return false
}

// ColumnStyle represents the column spacing style of tables.
type ColumnStyle string

const (
	// ColumnStyleAny allows any consistent style.
	ColumnStyleAny ColumnStyle = "any"
	// ColumnStyleAligned requires columns to be aligned with padding.
	ColumnStyleAligned ColumnStyle = "aligned"
	// ColumnStyleCompact uses minimal spacing (single space padding).
	ColumnStyleCompact ColumnStyle = "compact"
	// ColumnStyleTight uses no extra spacing.
	ColumnStyleTight ColumnStyle = "tight"
)

// Apply checks table column spacing style.
func (r *TableColumnStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}
	if ctx.Config != nil && ctx.Config.Flavor != config.FlavorGFM {
		return nil, nil
	}

	configStyle := ColumnStyle(ctx.OptionString("style", string(ColumnStyleAny)))
	if configStyle == ColumnStyleAny {
		return nil, nil // Any style is allowed
	}

	var diags []lint.Diagnostic

	for _, tb := range collectTables(ctx.Classification()) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		for rowNum := tb.firstLine(); rowNum <= tb.lastLine(); rowNum++ {
			rowContent := lint.LineContent(ctx.File, rowNum)
			detectedStyle := r.detectColumnStyle(rowContent)

			if detectedStyle != configStyle {
				pos := mdast.SourcePosition{
					StartLine:   rowNum,
					StartColumn: 1,
					EndLine:     rowNum,
					EndColumn:   len(rowContent),
				}
				diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
					fmt.Sprintf("Table column style '%s' does not match expected '%s'", detectedStyle, configStyle)).
					WithSeverity(config.SeverityWarning).
					WithSuggestion(fmt.Sprintf("Use %s column style", configStyle)).
					Build()
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

func (r *TableColumnStyleRule) detectColumnStyle(content []byte) ColumnStyle {
	cells := splitTableCells(content)
	if len(cells) == 0 {
		return ColumnStyleCompact
	}

	hasLeadingSpace := true
	hasTrailingSpace := true
	allPaddedSame := true
	firstPadding := -1

	for _, cell := range cells {
		if len(cell) == 0 {
			continue
		}

		leadingSpaces := 0
		for _, ch := range cell {
			if ch != ' ' {
				break
			}
			leadingSpaces++
		}

		trailingSpaces := 0
		for i := len(cell) - 1; i >= 0; i-- {
			if cell[i] != ' ' {
				break
			}
			trailingSpaces++
		}

		if leadingSpaces == 0 {
			hasLeadingSpace = false
		}
		if trailingSpaces == 0 {
			hasTrailingSpace = false
		}

		totalPadding := leadingSpaces + trailingSpaces
		if firstPadding < 0 {
			firstPadding = totalPadding
		} else if totalPadding != firstPadding {
			allPaddedSame = false
		}
	}

	switch {
	case !hasLeadingSpace && !hasTrailingSpace:
		return ColumnStyleTight
	case hasLeadingSpace && hasTrailingSpace && allPaddedSame:
		if firstPadding == 2 { // Single space on each side
			return ColumnStyleCompact
		}
		return ColumnStyleAligned
	default:
		return ColumnStyleCompact
	}
}
