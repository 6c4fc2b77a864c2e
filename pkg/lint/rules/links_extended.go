package rules

import (
	"regexp"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// NoBareURLsRule checks for bare URLs without angle brackets.
type NoBareURLsRule struct {
	lint.BaseRule
}

// NewNoBareURLsRule creates a new no-bare-urls rule.
func NewNoBareURLsRule() *NoBareURLsRule {
	return &NoBareURLsRule{
		BaseRule: lint.NewBaseRule(
			"MD034",
			"no-bare-urls",
			"Bare URL used",
			[]string{"links", "url"},
			true,
		),
	}
}

var emailCheckPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Apply checks for bare URLs without angle brackets. This rule no longer
// re-detects URLs itself: the classifier already scanned every paragraph
// line for bare http(s)/ftp URLs, excluding ones already covered by a code
// span, autolink, or markdown link/image (spec.md §4.2's InCode contract).
// The rule only has to filter the classified spans and build the fix.
func (r *NoBareURLsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	cls := ctx.Classification()
	doc := ctx.Doc()
	var diags []lint.Diagnostic

	for lineNum := 1; lineNum <= len(ctx.File.Lines); lineNum++ {
		if ctx.Cancelled() {
			return diags, ctx.Ctx.Err()
		}

		if inCodeBlock(cls.At(lineNum).Kind) {
			continue
		}

		for _, sp := range cls.SpansAt(lineNum) {
			if sp.Kind != classify.BareURL {
				continue
			}

			url := doc.Substr(source.Range{
				Start: source.Position{Line: lineNum, Column: sp.Start},
				End:   source.Position{Line: lineNum, Column: sp.End},
			})
			if url == "" {
				continue
			}

			startByte, okStart := doc.PosToByte(source.Position{Line: lineNum, Column: sp.Start})
			endByte, okEnd := doc.PosToByte(source.Position{Line: lineNum, Column: sp.End})
			if !okStart || !okEnd {
				continue
			}

			builder := fix.NewEditBuilder()
			builder.ReplaceRange(startByte, endByte, "<"+url+">")

			diagPos := mdast.SourcePosition{
				StartLine:   lineNum,
				StartColumn: sp.Start,
				EndLine:     lineNum,
				EndColumn:   sp.End,
			}

			msg := "Bare URL used"
			if isEmail(url) {
				msg = "Bare email address used"
			}

			diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, diagPos, msg).
				WithSeverity(config.SeverityWarning).
				WithSuggestion("Wrap the URL/email in angle brackets").
				WithFix(builder).
				Build()
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

func isEmail(s string) bool {
	return emailCheckPattern.MatchString(s)
}
