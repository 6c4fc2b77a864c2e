package rules

import (
	"fmt"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/lint"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// InlineHTMLRule restricts the use of raw HTML in Markdown.
type InlineHTMLRule struct {
	lint.BaseRule
}

// NewInlineHTMLRule creates a new inline HTML rule.
func NewInlineHTMLRule() *InlineHTMLRule {
	return &InlineHTMLRule{
		BaseRule: lint.NewBaseRule(
			"MD033",
			"no-inline-html",
			"Inline HTML should be avoided or restricted to allowed elements",
			[]string{"html"},
			false, // Not auto-fixable.
		),
	}
}

// commonmarkAllowedHTMLElements returns the default allowed elements for CommonMark.
// CommonMark is strict - no HTML allowed by default.
func commonmarkAllowedHTMLElements() []string {
	return nil
}

// gfmAllowedHTMLElements returns the default allowed elements for GFM.
// Includes common formatting elements used in GitHub.
func gfmAllowedHTMLElements() []string {
	return []string{"br", "sup", "sub", "details", "summary", "kbd", "abbr"}
}

// DefaultEnabled returns false - this rule is opt-in.
func (r *InlineHTMLRule) DefaultEnabled() bool {
	return false
}

// htmlBlockRun is a maximal run of consecutive HTMLBlock lines as seen by
// the classifier.
type htmlBlockRun struct {
	startLine int
	endLine   int
}

func collectHTMLBlocks(cls *classify.Classification) []htmlBlockRun {
	var out []htmlBlockRun
	n := len(cls.Lines)
	for i := 1; i <= n; {
		if cls.At(i).Kind != classify.HTMLBlock {
			i++
			continue
		}
		start := i
		for i <= n && cls.At(i).Kind == classify.HTMLBlock {
			i++
		}
		out = append(out, htmlBlockRun{startLine: start, endLine: i - 1})
	}
	return out
}

// Apply checks for inline HTML usage. Block-level HTML is read directly off
// the classifier's HTMLBlock runs; inline HTML comes from its RawHTML
// spans — neither depends on an AST html node.
func (r *InlineHTMLRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil {
		return nil, nil
	}

	allowedElements := r.getAllowedElements(ctx)
	allowedSet := make(map[string]bool)
	for _, el := range allowedElements {
		allowedSet[strings.ToLower(el)] = true
	}

	cls := ctx.Classification()
	var diags []lint.Diagnostic

	for _, block := range collectHTMLBlocks(cls) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		content := r.blockContent(ctx, block)
		diag := r.checkHTML(ctx, block.startLine, block.endLine, content, allowedSet, "HTML block")
		if diag != nil {
			diags = append(diags, *diag)
		}
	}

	for lineNum := 1; lineNum <= len(cls.Lines); lineNum++ {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		for _, span := range cls.SpansAt(lineNum) {
			if span.Kind != classify.RawHTML {
				continue
			}

			doc := ctx.Doc()
			content := doc.Substr(source.Range{
				Start: source.Position{Line: lineNum, Column: span.Start},
				End:   source.Position{Line: lineNum, Column: span.End},
			})

			diag := r.checkHTML(ctx, lineNum, lineNum, []byte(content), allowedSet, "Inline HTML")
			if diag != nil {
				diags = append(diags, *diag)
			}
		}
	}

	return diags, nil
}

func (r *InlineHTMLRule) blockContent(ctx *lint.RuleContext, block htmlBlockRun) []byte {
	file := ctx.File
	if file == nil || block.startLine < 1 || block.endLine > len(file.Lines) {
		return nil
	}
	start := file.Lines[block.startLine-1].StartOffset
	end := file.Lines[block.endLine-1].NewlineStart
	if start < 0 || end > len(file.Content) || start >= end {
		return nil
	}
	return file.Content[start:end]
}

func (r *InlineHTMLRule) getAllowedElements(ctx *lint.RuleContext) []string {
	// Check for explicit configuration.
	if allowed := ctx.Option("allowed_elements", nil); allowed != nil {
		if list, ok := allowed.([]any); ok {
			result := make([]string, 0, len(list))
			for _, v := range list {
				if s, ok := v.(string); ok {
					result = append(result, s)
				}
			}
			return result
		}
	}

	// Use flavor-based defaults.
	if ctx.Config != nil && ctx.Config.Flavor == config.FlavorGFM {
		return gfmAllowedHTMLElements()
	}

	return commonmarkAllowedHTMLElements()
}

func (r *InlineHTMLRule) checkHTML(
	ctx *lint.RuleContext,
	startLine, endLine int,
	content []byte,
	allowedSet map[string]bool,
	nodeType string,
) *lint.Diagnostic {
	if len(content) == 0 {
		return nil
	}

	doc := ctx.Doc()
	pos := mdast.SourcePosition{
		StartLine:   startLine,
		StartColumn: 1,
		EndLine:     endLine,
		EndColumn:   doc.LineRuneLength(endLine) + 1,
	}

	tagName := lint.ExtractHTMLTagName(content)
	if tagName == "" {
		// Could be a comment or other HTML construct.
		diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
			nodeType+" is not allowed").
			WithSeverity(config.SeverityWarning).
			WithSuggestion("Remove or replace with Markdown syntax").
			Build()
		return &diag
	}

	// Check if allowed.
	if allowedSet[tagName] {
		return nil
	}

	var suggestion string
	if len(allowedSet) > 0 {
		allowed := make([]string, 0, len(allowedSet))
		for k := range allowedSet {
			allowed = append(allowed, k)
		}
		suggestion = "Allowed elements: " + strings.Join(allowed, ", ")
	} else {
		suggestion = "Remove HTML or use Markdown syntax"
	}

	diag := lint.NewDiagnosticAt(r.ID(), ctx.File.Path, pos,
		fmt.Sprintf("HTML element '%s' is not allowed", tagName)).
		WithSeverity(config.SeverityWarning).
		WithSuggestion(suggestion).
		Build()
	return &diag
}
