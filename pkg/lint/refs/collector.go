package refs

import (
	"regexp"
	"strings"

	"github.com/corvidlabs/mkdlint/pkg/classify"
	"github.com/corvidlabs/mkdlint/pkg/mdast"
	"github.com/corvidlabs/mkdlint/pkg/source"
)

// Collect builds a reference Context from a document's line classification
// and inline spans (spec.md §4.2) rather than walking an AST: heading
// anchors come from AtxHeading/SetextUnderline lines, HTML anchors from
// HTMLBlock runs and RawHTML spans, link/image usages from Link/Image/
// Autolink spans, and reference definitions directly from RefDef lines.
func Collect(cls *classify.Classification, doc *source.Document, file *mdast.FileSnapshot) *Context {
	if cls == nil || doc == nil || file == nil {
		return NewContext(file)
	}

	coll := &collector{
		ctx: NewContext(file),
		cls: cls,
		doc: doc,
	}
	coll.collectHeadingAnchors()
	coll.collectHTMLAnchors()
	coll.collectDefinitions()
	coll.collectLinkUsages()
	coll.resolveReferences()

	return coll.ctx
}

// collector builds a Context from a Classification.
type collector struct {
	ctx *Context
	cls *classify.Classification
	doc *source.Document
}

func (c *collector) linePosition(lineNum int) mdast.SourcePosition {
	return mdast.SourcePosition{
		StartLine:   lineNum,
		StartColumn: 1,
		EndLine:     lineNum,
		EndColumn:   c.doc.LineRuneLength(lineNum) + 1,
	}
}

// collectHeadingAnchors generates anchors from ATX and setext headings.
func (c *collector) collectHeadingAnchors() {
	for i := 1; i <= len(c.cls.Lines); i++ {
		line := c.cls.At(i)
		switch line.Kind {
		case classify.AtxHeading:
			text := ""
			if line.TextEnd > line.TextStart {
				text = strings.TrimSpace(c.doc.Substr(source.Range{
					Start: source.Position{Line: i, Column: line.TextStart},
					End:   source.Position{Line: i, Column: line.TextEnd},
				}))
			}
			if text != "" {
				c.ctx.Anchors.AddFromHeading(text, c.linePosition(i))
			}
		case classify.SetextUnderline:
			textLine := i - 1
			text := strings.TrimSpace(c.doc.Line(textLine))
			if text != "" {
				c.ctx.Anchors.AddFromHeading(text, c.linePosition(textLine))
			}
		}
	}
}

// blockContent returns the raw source bytes spanning [startLine, endLine].
func (c *collector) blockContent(startLine, endLine int) []byte {
	file := c.ctx.File
	if file == nil || startLine < 1 || endLine > len(file.Lines) || startLine > endLine {
		return nil
	}
	start := file.Lines[startLine-1].StartOffset
	end := file.Lines[endLine-1].NewlineStart
	if start < 0 || end > len(file.Content) || start >= end {
		return nil
	}
	return file.Content[start:end]
}

// rawSpanText returns the literal source text of a span (its full [Start,
// End) range, not the inner TextStart/TextEnd used for link/image text).
func (c *collector) rawSpanText(lineNum int, sp classify.Span) string {
	if sp.End <= sp.Start {
		return ""
	}
	return c.doc.Substr(source.Range{
		Start: source.Position{Line: lineNum, Column: sp.Start},
		End:   source.Position{Line: lineNum, Column: sp.End},
	})
}

func (c *collector) spanPosition(lineNum int, sp classify.Span) mdast.SourcePosition {
	return mdast.SourcePosition{
		StartLine:   lineNum,
		StartColumn: sp.Start,
		EndLine:     lineNum,
		EndColumn:   sp.End,
	}
}

// collectHTMLAnchors extracts id/name attributes from HTML blocks and
// inline raw HTML.
func (c *collector) collectHTMLAnchors() {
	n := len(c.cls.Lines)

	for i := 1; i <= n; {
		if c.cls.At(i).Kind != classify.HTMLBlock {
			i++
			continue
		}
		start := i
		for i <= n && c.cls.At(i).Kind == classify.HTMLBlock {
			i++
		}
		content := c.blockContent(start, i-1)
		pos := mdast.SourcePosition{
			StartLine: start, StartColumn: 1,
			EndLine: i - 1, EndColumn: c.doc.LineRuneLength(i-1) + 1,
		}
		c.extractHTMLAttribute(content, "id", AnchorFromHTMLID, pos)
		c.extractHTMLAttribute(content, "name", AnchorFromHTMLName, pos)
	}

	for lineNum := 1; lineNum <= n; lineNum++ {
		for _, sp := range c.cls.SpansAt(lineNum) {
			if sp.Kind != classify.RawHTML {
				continue
			}
			content := []byte(c.rawSpanText(lineNum, sp))
			pos := c.spanPosition(lineNum, sp)
			c.extractHTMLAttribute(content, "id", AnchorFromHTMLID, pos)
			c.extractHTMLAttribute(content, "name", AnchorFromHTMLName, pos)
		}
	}
}

// htmlAttrPattern matches HTML attributes like id="value" or id='value'.
var htmlAttrPattern = regexp.MustCompile(`(?i)\b(id|name)\s*=\s*["']([^"']+)["']`)

// extractHTMLAttribute finds and adds anchors from HTML attributes.
func (c *collector) extractHTMLAttribute(content []byte, attr string, source AnchorSource, pos mdast.SourcePosition) {
	matches := htmlAttrPattern.FindAllSubmatch(content, -1)
	for _, match := range matches {
		if len(match) >= 3 && strings.EqualFold(string(match[1]), attr) {
			id := string(match[2])
			anchor := &Anchor{
				ID:       id,
				Source:   source,
				Position: pos,
			}
			c.ctx.Anchors.Add(anchor)
		}
	}
}

// refDefLabelPattern recovers the as-written (non-normalized) label text
// from a line the classifier already identified as RefDef, for diagnostic
// display; classify.Line.RefLabel itself is lowercased for matching.
var refDefLabelPattern = regexp.MustCompile(`^\s{0,3}\[([^\]]+)\]:`)

// collectDefinitions reads reference definitions directly off the
// classifier's RefDef lines.
func (c *collector) collectDefinitions() {
	for lineNum := 1; lineNum <= len(c.cls.Lines); lineNum++ {
		line := c.cls.At(lineNum)
		if line.Kind != classify.RefDef {
			continue
		}

		label := line.RefLabel
		if m := refDefLabelPattern.FindStringSubmatch(c.doc.Line(lineNum)); len(m) == 2 {
			label = m[1]
		}

		def := &ReferenceDefinition{
			Label:           label,
			NormalizedLabel: line.RefLabel,
			Destination:     line.RefDest,
			Title:           line.RefTitle,
			LineNumber:      lineNum,
			Position:        c.linePosition(lineNum),
		}

		if _, exists := c.ctx.Definitions[def.NormalizedLabel]; exists {
			def.IsDuplicate = true
		} else {
			c.ctx.Definitions[def.NormalizedLabel] = def
		}

		c.ctx.AllDefinitions = append(c.ctx.AllDefinitions, def)
	}
}

// collectLinkUsages walks every line's inline spans for links, images, and
// autolinks.
func (c *collector) collectLinkUsages() {
	for lineNum := 1; lineNum <= len(c.cls.Lines); lineNum++ {
		for _, sp := range c.cls.SpansAt(lineNum) {
			switch sp.Kind {
			case classify.Link, classify.Image:
				c.collectLinkSpanUsage(lineNum, sp)
			case classify.Autolink:
				c.collectAutolinkUsage(lineNum, sp)
			}
		}
	}
}

func (c *collector) spanText(lineNum int, sp classify.Span) string {
	if sp.TextEnd <= sp.TextStart {
		return ""
	}
	return c.doc.Substr(source.Range{
		Start: source.Position{Line: lineNum, Column: sp.TextStart},
		End:   source.Position{Line: lineNum, Column: sp.TextEnd},
	})
}

func (c *collector) collectLinkSpanUsage(lineNum int, sp classify.Span) {
	text := c.spanText(lineNum, sp)
	usage := &ReferenceUsage{
		IsImage:  sp.Kind == classify.Image,
		Text:     text,
		Position: c.spanPosition(lineNum, sp),
	}

	switch sp.LinkKind {
	case classify.LinkInline:
		usage.Style = StyleInline
		usage.Destination = sp.Dest
		usage.Fragment = ExtractFragment(sp.Dest)
	case classify.LinkReference:
		style, label := c.referenceStyle(lineNum, sp, text)
		usage.Style = style
		usage.Label = label
		usage.NormalizedLabel = NormalizeLabel(label)
		if def := c.ctx.Definitions[usage.NormalizedLabel]; def != nil {
			usage.Destination = def.Destination
			usage.Fragment = ExtractFragment(def.Destination)
		}
	}

	c.ctx.Usages = append(c.ctx.Usages, usage)
}

// referenceStyle distinguishes full ("[text][label]"), collapsed
// ("[text][]") and shortcut ("[text]") reference syntax. scanLinkOrImage
// only records enough in Span.Dest to tell full apart from the other two
// (it holds the explicit label for full, and falls back to the link text
// for both collapsed and shortcut) — the remaining ambiguity is resolved
// by inspecting the literal text immediately following the closing "]".
func (c *collector) referenceStyle(lineNum int, sp classify.Span, text string) (ReferenceStyle, string) {
	if sp.Dest != text {
		return StyleFull, sp.Dest
	}

	tail := ""
	if sp.End > sp.TextEnd {
		tail = c.doc.Substr(source.Range{
			Start: source.Position{Line: lineNum, Column: sp.TextEnd},
			End:   source.Position{Line: lineNum, Column: sp.End},
		})
	}

	if tail == "][]" {
		return StyleCollapsed, text
	}
	return StyleShortcut, text
}

func (c *collector) collectAutolinkUsage(lineNum int, sp classify.Span) {
	dest := sp.Dest
	usage := &ReferenceUsage{
		IsImage:     false,
		Text:        dest,
		Destination: dest,
		Fragment:    ExtractFragment(dest),
		Style:       StyleAutolink,
		Position:    c.spanPosition(lineNum, sp),
	}
	c.ctx.Usages = append(c.ctx.Usages, usage)
}

// resolveReferences links usages to their definitions and updates usage counts.
func (c *collector) resolveReferences() {
	for _, usage := range c.ctx.Usages {
		if usage.NormalizedLabel == "" {
			continue
		}

		def := c.ctx.Definitions[usage.NormalizedLabel]
		if def != nil {
			usage.ResolvedDefinition = def
			def.UsageCount++
		}
	}
}
