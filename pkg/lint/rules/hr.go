package rules

import (
	"fmt"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
)

// styleConsistent is the configuration value for consistent style detection.
const styleConsistent = "consistent"

// HRStyleRule checks for consistent horizontal rule style.
type HRStyleRule struct {
	lint.BaseRule
}

// NewHRStyleRule creates a new hr-style rule.
func NewHRStyleRule() *HRStyleRule {
	return &HRStyleRule{
		BaseRule: lint.NewBaseRule(
			"MD035",
			"hr-style",
			"Horizontal rule style",
			[]string{"hr"},
			true,
		),
	}
}

// Apply checks for consistent horizontal rule style. Unlike the AST-based
// rules in this catalog, it never touches ctx.Root: a thematic break is a
// single self-contained line, so the classifier's per-line Kind is all this
// rule needs (spec.md §4.2).
func (r *HRStyleRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	configStyle := ctx.OptionString("style", styleConsistent)
	cls := ctx.Classification()
	doc := ctx.Doc()

	var expectedStyle string
	if configStyle != styleConsistent {
		expectedStyle = configStyle
	}

	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= len(cls.Lines); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if cls.At(lineNum).Kind != classify.ThematicBreak {
			continue
		}

		hrStyle := strings.TrimSpace(doc.Line(lineNum))

		if expectedStyle == "" {
			expectedStyle = hrStyle
			continue
		}

		if hrStyle == expectedStyle {
			continue
		}

		line := ctx.File.Lines[lineNum-1]

		builder := fix.NewEditBuilder()
		builder.ReplaceRange(line.StartOffset, line.NewlineStart, expectedStyle)

		pos := mdast.SourcePosition{
			StartLine:   lineNum,
			StartColumn: 1,
			EndLine:     lineNum,
			EndColumn:   doc.LineRuneLength(lineNum) + 1,
		}

		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			fmt.Sprintf("Horizontal rule style %q does not match expected %q", hrStyle, expectedStyle)).
			WithSeverity(config.SeverityWarning).
			WithSuggestion(fmt.Sprintf("Use %q for all horizontal rules", expectedStyle)).
			WithFix(builder).
			Build()
		diags = append(diags, diag)
	}

	return diags, nil
}
