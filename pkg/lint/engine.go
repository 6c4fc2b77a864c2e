package lint

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/inlineconfig"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// sortDiagnostics orders diagnostics by (line, column, rule_id), the
// deterministic total order the Rule Runner contract requires.
func sortDiagnostics(diags []Diagnostic) {
	slices.SortFunc(diags, func(a, b Diagnostic) int {
		if c := cmp.Compare(a.StartLine, b.StartLine); c != 0 {
			return c
		}
		if c := cmp.Compare(a.StartColumn, b.StartColumn); c != 0 {
			return c
		}
		return cmp.Compare(a.RuleID, b.RuleID)
	})
}

// FileResult contains the results of linting a single file.
type FileResult struct {
	// Snapshot is the parsed file.
	Snapshot *mdast.FileSnapshot

	// Diagnostics contains all issues found.
	Diagnostics []Diagnostic

	// Edits contains validated, sorted edits for auto-fix.
	// Empty if no fixes are available or --fix was not requested.
	Edits []fix.TextEdit

	// SkippedEdits contains edits that were skipped due to conflicts.
	// When multiple edits overlap, earlier edits (by start position) take precedence.
	SkippedEdits []fix.TextEdit

	// EditConflicts is true if any edits were skipped due to conflicts.
	EditConflicts bool

	// RuleErrors contains any errors from rule execution.
	RuleErrors map[string]error
}

// HasIssues returns true if any diagnostics were found.
func (fr *FileResult) HasIssues() bool {
	return len(fr.Diagnostics) > 0
}

// HasFixes returns true if any fixes are available.
func (fr *FileResult) HasFixes() bool {
	return len(fr.Edits) > 0
}

// IssueCount returns the total number of diagnostics.
func (fr *FileResult) IssueCount() int {
	return len(fr.Diagnostics)
}

// FixableCount returns the number of diagnostics with fixes.
func (fr *FileResult) FixableCount() int {
	count := 0
	for _, d := range fr.Diagnostics {
		if d.HasFix() {
			count++
		}
	}
	return count
}

// Engine coordinates parsing and rule execution for linting.
type Engine struct {
	// Parser parses Markdown files into FileSnapshots.
	Parser Parser

	// Registry holds all available rules.
	Registry *Registry
}

// NewEngine creates a new Engine with the given parser and registry.
func NewEngine(parser Parser, registry *Registry) *Engine {
	return &Engine{
		Parser:   parser,
		Registry: registry,
	}
}

// LintFile parses and lints a single file.
func (e *Engine) LintFile(
	ctx context.Context,
	path string,
	content []byte,
	cfg *config.Config,
) (*FileResult, error) {
	// Invalid UTF-8 is reported, not fatal (spec.md §1, §7: InvalidEncoding):
	// replace the offending bytes with U+FFFD before anything downstream
	// builds line/rune indices over the content.
	var invalidEncoding bool
	content, invalidEncoding = source.SanitizeUTF8(content)

	// Parse the file.
	snapshot, err := e.Parser.Parse(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Resolve which rules to run.
	resolved := ResolveRules(e.Registry, cfg)

	result := &FileResult{
		Snapshot:    snapshot,
		Diagnostics: nil,
		Edits:       nil,
		RuleErrors:  make(map[string]error),
	}

	if invalidEncoding {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			RuleID:      "InvalidEncoding",
			RuleName:    "invalid-encoding",
			Message:     "file contains invalid UTF-8; offending bytes were replaced with U+FFFD",
			Severity:    config.SeverityWarning,
			FilePath:    path,
			StartLine:   1,
			StartColumn: 1,
			EndLine:     1,
			EndColumn:   1,
		})
	}

	// Build the inline-configuration resolver (spec.md §4.3): a single
	// classification + directive scan up front, consulted per diagnostic
	// at emission time below rather than per rule.
	var resolver *inlineconfig.Resolver
	if !cfg.NoInlineConfig {
		doc := source.New(content)
		cls := classify.Classify(doc)
		resolver = inlineconfig.Resolve(doc, func(line int) bool {
			return cls.At(line).Kind == classify.Paragraph
		}, cfg.StrictMode)
	}

	// Collect all edits for validation.
	var allEdits []fix.TextEdit

	// Run each rule.
	for _, rr := range resolved {
		// Check for cancellation.
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("linting cancelled: %w", ctx.Err())
		default:
		}

		// Create rule context.
		ruleCtx := NewRuleContext(ctx, snapshot, cfg, rr.Config)
		ruleCtx.Registry = e.Registry

		// Execute rule.
		diags, err := rr.Rule.Apply(ruleCtx)
		if err != nil {
			result.RuleErrors[rr.Rule.ID()] = err
			continue
		}

		// Process diagnostics, dropping any suppressed by an inline directive.
		kept := diags[:0]
		for diagIdx := range diags {
			if resolver != nil && !resolver.Active(rr.Rule.ID(), diags[diagIdx].StartLine) {
				continue
			}

			// Apply resolved severity.
			diags[diagIdx].Severity = rr.Severity

			// Ensure file path is set.
			if diags[diagIdx].FilePath == "" {
				diags[diagIdx].FilePath = path
			}

			// Ensure rule name is set for human-readable output.
			if diags[diagIdx].RuleName == "" {
				diags[diagIdx].RuleName = rr.Rule.Name()
			}

			// Collect edits if auto-fix is enabled for this rule.
			if rr.AutoFix && len(diags[diagIdx].FixEdits) > 0 {
				allEdits = append(allEdits, diags[diagIdx].FixEdits...)
			}

			kept = append(kept, diags[diagIdx])
		}

		result.Diagnostics = append(result.Diagnostics, kept...)
	}

	// Rules run in canonical-id order, but a single line can be flagged by
	// several rules; the Rule Runner's output contract is a total order by
	// (line, column, rule_id), not rule-execution order (spec.md §5).
	sortDiagnostics(result.Diagnostics)

	// Validate and prepare edits, merging deletions and filtering conflicts.
	if len(allEdits) > 0 {
		accepted, skipped, _, err := fix.PrepareEditsFiltered(allEdits, len(content))
		if err != nil {
			// Validation error (not conflicts - those are filtered).
			// Still include diagnostics but clear edits.
			result.Edits = nil
			result.SkippedEdits = nil
			result.EditConflicts = true
		} else {
			result.Edits = accepted
			result.SkippedEdits = skipped
			result.EditConflicts = len(skipped) > 0
		}
	}

	return result, nil
}
