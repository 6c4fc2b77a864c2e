package lint

import (
	"context"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/config"
	"github.com/corvidlabs/mkdlint/pkg/fix"
	"github.com/corvidlabs/mkdlint/pkg/lint/refs"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// RuleContext provides all context needed by a rule to perform linting.
//
// Design note: RuleContext stores context.Context as a field (Ctx) rather than
// passing it as a method parameter. This is acceptable because RuleContext is
// a short-lived parameter object created per-rule-invocation, not a long-lived
// struct. This design simplifies the Rule interface (single Apply method) while
// still providing cancellation support via the Cancelled() helper.
type RuleContext struct {
	// Ctx is the context for cancellation and timeouts.
	Ctx context.Context

	// File is the parsed FileSnapshot.
	File *mdast.FileSnapshot

	// Root is the AST root node (convenience alias for File.Root).
	Root *mdast.Node

	// Config is the resolved configuration.
	Config *config.Config

	// RuleConfig is the rule-specific configuration (may be nil).
	RuleConfig *config.RuleConfig

	// Builder accumulates text edits for auto-fix.
	Builder *fix.EditBuilder

	// Registry provides access to the rule registry for name lookups.
	Registry *Registry

	// refCtx is the cached reference context, lazily initialized.
	refCtx *refs.Context

	// cache holds pre-computed AST node collections, built lazily on first
	// use by a rule that still reasons over the tree (tables, nested lists,
	// matched HTML tags) rather than the line classifier.
	cache *NodeCache

	// doc and cls are the line-oriented view of the file: doc is the byte
	// index, cls is its classification (spec.md §4.2). Most rules in this
	// catalog query cls directly instead of walking File.Root.
	doc *source.Document
	cls *classify.Classification
}

// NewRuleContext creates a RuleContext for the given file and configuration.
func NewRuleContext(
	ctx context.Context,
	file *mdast.FileSnapshot,
	cfg *config.Config,
	ruleCfg *config.RuleConfig,
) *RuleContext {
	var root *mdast.Node
	if file != nil {
		root = file.Root
	}

	return &RuleContext{
		Ctx:        ctx,
		File:       file,
		Root:       root,
		Config:     cfg,
		RuleConfig: ruleCfg,
		Builder:    fix.NewEditBuilder(),
	}
}

// Cancelled returns true if the context has been cancelled.
func (rc *RuleContext) Cancelled() bool {
	select {
	case <-rc.Ctx.Done():
		return true
	default:
		return false
	}
}

// Option returns a rule-specific option value, or the default if not set.
func (rc *RuleContext) Option(key string, defaultValue any) any {
	if rc.RuleConfig == nil || rc.RuleConfig.Options == nil {
		return defaultValue
	}
	if v, ok := rc.RuleConfig.Options[key]; ok {
		return v
	}
	return defaultValue
}

// OptionInt returns a rule-specific integer option, or the default.
func (rc *RuleContext) OptionInt(key string, defaultValue int) int {
	v := rc.Option(key, defaultValue)
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	default:
		return defaultValue
	}
}

// OptionString returns a rule-specific string option, or the default.
func (rc *RuleContext) OptionString(key string, defaultValue string) string {
	v := rc.Option(key, defaultValue)
	if s, ok := v.(string); ok {
		return s
	}
	return defaultValue
}

// OptionBool returns a rule-specific boolean option, or the default.
func (rc *RuleContext) OptionBool(key string, defaultValue bool) bool {
	v := rc.Option(key, defaultValue)
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultValue
}

// OptionStringSlice returns a rule-specific string slice option, or the default.
func (rc *RuleContext) OptionStringSlice(key string, defaultValue []string) []string {
	v := rc.Option(key, defaultValue)
	if slice, ok := v.([]string); ok {
		return slice
	}
	// Handle []interface{} from YAML/JSON parsing
	if iface, ok := v.([]interface{}); ok {
		result := make([]string, 0, len(iface))
		for _, item := range iface {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// RefContext returns the reference context for this file, building it lazily.
// The reference context contains all link/image usages, reference definitions,
// and document anchors needed by reference-tracking rules (MD051-MD054).
func (rc *RuleContext) RefContext() *refs.Context {
	if rc.refCtx == nil {
		rc.refCtx = refs.Collect(rc.Classification(), rc.Doc(), rc.File)
	}
	return rc.refCtx
}

// Doc returns the byte/line index for this file, building it lazily.
func (rc *RuleContext) Doc() *source.Document {
	if rc.doc == nil {
		if rc.File == nil {
			rc.doc = source.New(nil)
		} else {
			rc.doc = source.New(rc.File.Content)
		}
	}
	return rc.doc
}

// Classification returns the line classification for this file (spec.md
// §4.2), building it lazily from Doc(). This is the primary surface the
// rule catalog queries: Classification().At(line) for block context,
// Classification().SpansAt(line) for inline constructs, and
// Classification().InCode(line, col) to suppress false positives inside
// code spans and raw HTML.
func (rc *RuleContext) Classification() *classify.Classification {
	if rc.cls == nil {
		rc.cls = classify.Classify(rc.Doc())
	}
	return rc.cls
}

// nodeCache returns the lazily-built AST node cache, used by the handful of
// rules that still need tree structure (table column counts, nested list
// depth, HTML tag matching) the line classifier does not itself resolve.
func (rc *RuleContext) nodeCache() *NodeCache {
	if rc.cache == nil {
		rc.cache = newNodeCache()
		rc.cache.build(rc.Root)
	}
	return rc.cache
}

// Headings returns all heading nodes, cached across rules in this run.
func (rc *RuleContext) Headings() []*mdast.Node { return rc.nodeCache().Headings() }

// Lists returns all list nodes, cached across rules in this run.
func (rc *RuleContext) Lists() []*mdast.Node { return rc.nodeCache().Lists() }

// ListItems returns all list item nodes, cached across rules in this run.
func (rc *RuleContext) ListItems() []*mdast.Node { return rc.nodeCache().ListItems() }

// CodeBlocks returns all fenced/indented code block nodes, cached across rules in this run.
func (rc *RuleContext) CodeBlocks() []*mdast.Node { return rc.nodeCache().CodeBlocks() }

// Paragraphs returns all paragraph nodes, cached across rules in this run.
func (rc *RuleContext) Paragraphs() []*mdast.Node { return rc.nodeCache().Paragraphs() }

// Blockquotes returns all blockquote nodes, cached across rules in this run.
func (rc *RuleContext) Blockquotes() []*mdast.Node { return rc.nodeCache().Blockquotes() }

// Tables returns all table nodes, cached across rules in this run.
func (rc *RuleContext) Tables() []*mdast.Node { return rc.nodeCache().Tables() }

// ThematicBreaks returns all thematic break nodes, cached across rules in this run.
func (rc *RuleContext) ThematicBreaks() []*mdast.Node { return rc.nodeCache().ThematicBreaks() }

// HTMLBlocks returns all HTML block nodes, cached across rules in this run.
func (rc *RuleContext) HTMLBlocks() []*mdast.Node { return rc.nodeCache().HTMLBlocks() }

// CodeSpans returns all inline code span nodes, cached across rules in this run.
func (rc *RuleContext) CodeSpans() []*mdast.Node { return rc.nodeCache().CodeSpans() }

// Links returns all link nodes, cached across rules in this run.
func (rc *RuleContext) Links() []*mdast.Node { return rc.nodeCache().Links() }

// Images returns all image nodes, cached across rules in this run.
func (rc *RuleContext) Images() []*mdast.Node { return rc.nodeCache().Images() }

// HTMLInlines returns all inline HTML nodes, cached across rules in this run.
func (rc *RuleContext) HTMLInlines() []*mdast.Node { return rc.nodeCache().HTMLInlines() }

// EmphasisNodes returns all emphasis nodes, cached across rules in this run.
func (rc *RuleContext) EmphasisNodes() []*mdast.Node { return rc.nodeCache().Emphasis() }

// StrongNodes returns all strong-emphasis nodes, cached across rules in this run.
func (rc *RuleContext) StrongNodes() []*mdast.Node { return rc.nodeCache().Strong() }
