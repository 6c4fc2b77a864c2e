// Package inlineconfig implements the inline-configuration resolver: it
// scans a document's HTML comments for mkdlint-disable/enable directives and
// produces, for every (rule, line) pair, a boolean "rule active here".
package inlineconfig

import (
	"regexp"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/source"
)

var reDirective = regexp.MustCompile(`<!--\s*mkdlint-(disable-next-line|disable-file|capture|restore|disable|enable)((?:\s+[A-Za-z0-9_-]+)*)\s*-->`)

// toggle records a single directive occurrence: the line it was found on,
// its kind, and the rule ids it names (empty means "all rules").
type toggle struct {
	line  int
	kind  string
	rules []string
}

// Resolver answers Active(ruleID, line) for a classified document. It is
// built once per lint run via Resolve and then consulted per diagnostic.
type Resolver struct {
	disabledFile map[string]bool // rule -> disabled for whole file ("" key = all rules)
	fileAll      bool

	// ranges[rule] is a sorted list of half-open [start,end) line ranges
	// (1-based, end exclusive; end == 0 means "to EOF") during which the
	// rule is disabled by a disable/enable pair.
	ranges map[string][]lineRange

	// nextLine[rule] is the set of lines disabled by disable-next-line,
	// keyed by the line right after the directive (directiveLine+1). Blank
	// lines and comment lines after the directive are not skipped.
	nextLine map[string]map[int]bool

	// allRanges/allNextLine mirror the above for the empty-rule-list
	// ("all rules") case, keyed directly by line.
	allRanges   []lineRange
	allNextLine map[int]bool
}

type lineRange struct {
	start, end int // end == 0 means unbounded (runs to EOF)
}

// Resolve scans doc for directives and builds a Resolver. strictMode, when
// true, ignores directives that appear inside running paragraph text (as
// opposed to their own dedicated line) — matching spec.md's Open Question
// resolution that in-paragraph directives are honored by default.
func Resolve(doc *source.Document, classify isParagraphFunc, strictMode bool) *Resolver {
	r := &Resolver{
		disabledFile: make(map[string]bool),
		ranges:       make(map[string][]lineRange),
		nextLine:     make(map[string]map[int]bool),
		allNextLine:  make(map[int]bool),
	}

	var toggles []toggle
	for line := 1; line <= doc.LineCount(); line++ {
		text := doc.Line(line)
		if !strings.Contains(text, "<!--") {
			continue
		}
		for _, m := range reDirective.FindAllStringSubmatch(text, -1) {
			ownLine := isOwnLineComment(text, m[0])
			if strictMode && !ownLine && classify != nil && classify(line) {
				continue
			}
			kind := m[1]
			rules := normalizeRules(m[2])
			toggles = append(toggles, toggle{line: line, kind: kind, rules: rules})
		}
	}

	r.apply(toggles, doc.LineCount())
	return r
}

// isParagraphFunc reports whether the given line is inside running
// paragraph text, as opposed to standing on its own. Passed in by the
// caller (the classify package) to avoid an import cycle.
type isParagraphFunc func(line int) bool

func normalizeRules(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ToUpper(f)
	}
	return out
}

// isOwnLineComment reports whether the matched directive is the only
// non-whitespace content on its line.
func isOwnLineComment(lineText, match string) bool {
	return strings.TrimSpace(lineText) == strings.TrimSpace(match)
}

// snapshot captures the open-range state at a mkdlint-capture directive, so
// a later mkdlint-restore can revert disable/enable toggles issued inside
// the bracketed region without affecting state from before the capture.
type snapshot struct {
	all  int
	rule map[string]int
}

func (r *Resolver) apply(toggles []toggle, lastLine int) {
	// Track open disable ranges per rule (keyed by rule id, or "" for the
	// all-rules case) as we scan toggles in document order.
	openAll := -1
	openRule := make(map[string]int)
	var stack []snapshot

	for _, tg := range toggles {
		switch tg.kind {
		case "capture":
			ruleCopy := make(map[string]int, len(openRule))
			for ru, start := range openRule {
				ruleCopy[ru] = start
			}
			stack = append(stack, snapshot{all: openAll, rule: ruleCopy})

		case "restore":
			if len(stack) == 0 {
				continue // Unbalanced restore; ignore rather than panic on malformed input.
			}
			saved := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch {
			case openAll >= 0 && saved.all < 0:
				// Disabled inside the bracket, wasn't before capture: close now.
				r.allRanges = append(r.allRanges, lineRange{start: openAll, end: tg.line})
				openAll = -1
			case openAll < 0 && saved.all >= 0:
				// Enabled inside the bracket, was disabled before capture: reopen.
				openAll = tg.line + 1
			}

			for ru := range unionKeys(openRule, saved.rule) {
				curStart, curOpen := openRule[ru]
				savedStart, savedOpen := saved.rule[ru]
				switch {
				case curOpen && !savedOpen:
					r.ranges[ru] = append(r.ranges[ru], lineRange{start: curStart, end: tg.line})
					delete(openRule, ru)
				case !curOpen && savedOpen:
					openRule[ru] = tg.line + 1
				case curOpen && savedOpen && curStart != savedStart:
					// Re-disabled with a different start inside the bracket; the
					// saved start point is the one that survives the restore.
					openRule[ru] = savedStart
				}
			}
		case "disable-file":
			if len(tg.rules) == 0 {
				r.fileAll = true
			} else {
				for _, ru := range tg.rules {
					r.disabledFile[ru] = true
				}
			}

		case "disable-next-line":
			target := tg.line + 1
			if len(tg.rules) == 0 {
				r.allNextLine[target] = true
			} else {
				for _, ru := range tg.rules {
					if r.nextLine[ru] == nil {
						r.nextLine[ru] = make(map[int]bool)
					}
					r.nextLine[ru][target] = true
				}
			}

		case "disable":
			start := tg.line + 1
			if len(tg.rules) == 0 {
				if openAll < 0 {
					openAll = start
				}
			} else {
				for _, ru := range tg.rules {
					if _, open := openRule[ru]; !open {
						openRule[ru] = start
					}
				}
			}

		case "enable":
			if len(tg.rules) == 0 {
				if openAll >= 0 {
					r.allRanges = append(r.allRanges, lineRange{start: openAll, end: tg.line})
					openAll = -1
				}
				for ru, start := range openRule {
					r.ranges[ru] = append(r.ranges[ru], lineRange{start: start, end: tg.line})
					delete(openRule, ru)
				}
			} else {
				for _, ru := range tg.rules {
					if start, open := openRule[ru]; open {
						r.ranges[ru] = append(r.ranges[ru], lineRange{start: start, end: tg.line})
						delete(openRule, ru)
					}
				}
			}
		}
	}

	if openAll >= 0 {
		r.allRanges = append(r.allRanges, lineRange{start: openAll, end: 0})
	}
	for ru, start := range openRule {
		r.ranges[ru] = append(r.ranges[ru], lineRange{start: start, end: 0})
	}
}

// Active reports whether ruleID should produce diagnostics on the given
// 1-based line. It runs in O(k) in the number of directives touching that
// rule; callers typically invoke it once per diagnostic, not per rule.
func (r *Resolver) Active(ruleID string, line int) bool {
	if r.fileAll || r.disabledFile[ruleID] {
		return false
	}
	if r.allNextLine[line] {
		return false
	}
	if r.nextLine[ruleID][line] {
		return false
	}
	for _, rg := range r.allRanges {
		if inRange(rg, line) {
			return false
		}
	}
	for _, rg := range r.ranges[ruleID] {
		if inRange(rg, line) {
			return false
		}
	}
	return true
}

// unionKeys returns the set of keys present in either map, so a capture/
// restore reconciliation visits every rule whose open state might have
// changed inside the bracketed region, not just the ones still open now.
func unionKeys(a, b map[string]int) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func inRange(rg lineRange, line int) bool {
	if line < rg.start {
		return false
	}
	if rg.end == 0 {
		return true
	}
	return line < rg.end
}
