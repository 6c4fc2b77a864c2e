package rules

import (
	"fmt"
	"strconv"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// BulletStyle represents the style of unordered list bullets.
type BulletStyle string

const (
	// BulletDash uses "-" as the bullet marker.
	BulletDash BulletStyle = "dash"
	// BulletPlus uses "+" as the bullet marker.
	BulletPlus BulletStyle = "plus"
	// BulletAsterisk uses "*" as the bullet marker.
	BulletAsterisk BulletStyle = "asterisk"
	// BulletConsistent uses whatever style is first encountered.
	BulletConsistent BulletStyle = "consistent"
)

// getBulletMarker returns the character representation for a bullet style.
func getBulletMarker(style BulletStyle) string {
	switch style {
	case BulletDash:
		return "-"
	case BulletPlus:
		return "+"
	case BulletAsterisk:
		return "*"
	default:
		return ""
	}
}

// getBulletStyle returns the bullet style for a marker character.
func getBulletStyle(marker string) (BulletStyle, bool) {
	switch marker {
	case "-":
		return BulletDash, true
	case "+":
		return BulletPlus, true
	case "*":
		return BulletAsterisk, true
	default:
		return "", false
	}
}

// listItemFixRange returns the byte range of a list item's marker, derived
// from the classifier's ListIndent column rather than a raw-byte scan.
func listItemFixRange(doc *source.Document, lineNum, indent int, markerLen int) (start, end int, ok bool) {
	startCol := indent + 1
	endCol := startCol + markerLen
	start, ok1 := doc.PosToByte(source.Position{Line: lineNum, Column: startCol})
	end, ok2 := doc.PosToByte(source.Position{Line: lineNum, Column: endCol})
	return start, end, ok1 && ok2
}

func lineDiagPosition(ctx *lint.RuleContext, lineNum int) mdast.SourcePosition {
	doc := ctx.Doc()
	return mdast.SourcePosition{
		StartLine:   lineNum,
		StartColumn: 1,
		EndLine:     lineNum,
		EndColumn:   doc.LineRuneLength(lineNum) + 1,
	}
}

// UnorderedListStyleRule enforces consistent bullet markers in unordered lists.
type UnorderedListStyleRule struct {
	lint.BaseRule
}

// NewUnorderedListStyleRule creates a new unordered list style rule.
func NewUnorderedListStyleRule() *UnorderedListStyleRule {
	return &UnorderedListStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD004",
			"unordered-list-style",
			"Unordered list style should be consistent",
			[]string{"lists", "style"},
			true,
		),
	}
}

// Apply checks that all unordered list items use a consistent bullet marker.
// Markers are read directly off the classifier's ListItem lines (spec.md
// §4.2) rather than from AST list nodes.
func (r *UnorderedListStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := BulletStyle(ctx.OptionString("style", string(BulletDash)))

	effectiveStyle := configStyle
	effectiveMarker := getBulletMarker(effectiveStyle)
	if configStyle == BulletConsistent {
		effectiveStyle = "" // Will be set from first bullet item.
		effectiveMarker = ""
	}

	cls := ctx.Classification()
	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= len(cls.Lines); lineNum++ {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		line := cls.At(lineNum)
		if line.Kind != classify.ListItem {
			continue
		}

		marker := line.ListMarker
		if _, _, ok := parseOrderedMarker(marker); ok {
			continue // Ordered list item.
		}
		if marker == "" {
			continue
		}

		if effectiveStyle == "" {
			if style, ok := getBulletStyle(marker); ok {
				effectiveStyle = style
				effectiveMarker = marker
			}
			continue
		}

		if marker != effectiveMarker {
			diags = append(diags, r.createBulletDiagnostic(ctx, lineNum, line.ListIndent, marker, effectiveMarker))
		}
	}

	return diags, nil
}

func (r *UnorderedListStyleRule) createBulletDiagnostic(
	ctx *lint.RuleContext,
	lineNum, indent int,
	actual, expected string,
) lint.Diagnostic {
	msg := fmt.Sprintf("Unordered list bullet '%s' does not match expected '%s'", actual, expected)

	pos := lineDiagPosition(ctx, lineNum)
	diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
		WithSeverity(config.SeverityWarning).
		WithSuggestion(fmt.Sprintf("Use '%s' as the bullet marker", expected))

	if start, end, ok := listItemFixRange(ctx.Doc(), lineNum, indent, len(actual)); ok {
		builder := fix.NewEditBuilder()
		builder.ReplaceRange(start, end, expected)
		diagBuilder = diagBuilder.WithFix(builder)
	}

	return diagBuilder.Build()
}

// OrderedListIncrementRule enforces sequential numbering in ordered lists.
type OrderedListIncrementRule struct {
	lint.BaseRule
}

// NewOrderedListIncrementRule creates a new ordered list increment rule.
func NewOrderedListIncrementRule() *OrderedListIncrementRule {
	return &OrderedListIncrementRule{
		BaseRule: lint.NewBaseRule(
			"MD029",
			"ol-prefix",
			"Ordered list item prefix",
			[]string{"ol"},
			true,
		),
	}
}

// orderedItem is one ordered-list-item line as seen by the classifier.
type orderedItem struct {
	lineNum int
	indent  int
	num     int
	marker  string
}

// orderedRun is a maximal sequence of ordered list items sharing one
// indent column, separated only by blank lines or list continuations. A
// change in indent (nesting) or an intervening non-list line starts a new
// run, mirroring how CommonMark treats those as distinct lists.
type orderedRun struct {
	delimiter string
	items     []orderedItem
}

func collectOrderedRuns(cls *classify.Classification) []orderedRun {
	var runs []orderedRun
	var current *orderedRun

	flush := func() {
		if current != nil && len(current.items) > 0 {
			runs = append(runs, *current)
		}
		current = nil
	}

	for i := 1; i <= len(cls.Lines); i++ {
		line := cls.At(i)
		switch line.Kind {
		case classify.ListItem:
			num, delim, ok := parseOrderedMarker(line.ListMarker)
			if !ok {
				flush()
				continue
			}
			item := orderedItem{lineNum: i, indent: line.ListIndent, num: num, marker: line.ListMarker}
			if current != nil && current.items[len(current.items)-1].indent == line.ListIndent {
				current.items = append(current.items, item)
			} else {
				flush()
				current = &orderedRun{delimiter: delim, items: []orderedItem{item}}
			}
		case classify.ListContinuation, classify.Blank:
			// Keep the current run open.
		default:
			flush()
		}
	}
	flush()

	return runs
}

// parseOrderedMarker splits an ordered list marker ("12." or "3)") into its
// number and delimiter. Returns ok=false for bullet markers.
func parseOrderedMarker(marker string) (num int, delimiter string, ok bool) {
	if marker == "" {
		return 0, "", false
	}
	last := marker[len(marker)-1]
	if last != '.' && last != ')' {
		return 0, "", false
	}
	n, err := strconv.Atoi(marker[:len(marker)-1])
	if err != nil {
		return 0, "", false
	}
	return n, string(last), true
}

// Apply checks that ordered lists have sequential numbering.
func (r *OrderedListIncrementRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	allowRenumbering := ctx.OptionBool("allow_renumbering", true)

	runs := collectOrderedRuns(ctx.Classification())
	var diags []lint.Diagnostic

	for _, run := range runs {
		if len(run.items) == 0 {
			continue
		}
		expected := run.items[0].num

		for _, item := range run.items {
			if ctx.Cancelled() {
				return diags, ctx.Ctx.Err()
			}
			if item.num != expected {
				diags = append(diags, r.createNumberDiagnostic(ctx, item, expected, run.delimiter, allowRenumbering))
			}
			expected++
		}
	}

	return diags, nil
}

func (r *OrderedListIncrementRule) createNumberDiagnostic(
	ctx *lint.RuleContext,
	item orderedItem,
	expected int,
	delimiter string,
	allowRenumbering bool,
) lint.Diagnostic {
	msg := fmt.Sprintf("Ordered list item numbered %d should be %d", item.num, expected)

	pos := lineDiagPosition(ctx, item.lineNum)
	diagBuilder := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos, msg).
		WithSeverity(config.SeverityWarning).
		WithSuggestion(fmt.Sprintf("Use %d%s instead", expected, delimiter))

	if allowRenumbering {
		if start, end, ok := listItemFixRange(ctx.Doc(), item.lineNum, item.indent, len(item.marker)); ok {
			builder := fix.NewEditBuilder()
			builder.ReplaceRange(start, end, fmt.Sprintf("%d%s", expected, delimiter))
			diagBuilder = diagBuilder.WithFix(builder)
		}
	}

	return diagBuilder.Build()
}
