package inlineconfig_test

import (
	"testing"

	"github.com/corvidlabs/mkdlint/pkg/inlineconfig"
	"github.com/corvidlabs/mkdlint/pkg/source"
	"github.com/stretchr/testify/assert"
)

func TestResolver_DisableEnablePair(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable MD009 -->\nbad   \n<!-- mkdlint-enable MD009 -->\nbad2   \n"
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD009", 2), "line 2 should be suppressed")
	assert.True(t, r.Active("MD009", 4), "line 4 should not be suppressed")
}

func TestResolver_DisableNextLine(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable-next-line MD013 -->\nthis line is long\nthis line is also long\n"
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD013", 2))
	assert.True(t, r.Active("MD013", 3))
}

func TestResolver_DisableFile(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable-file MD001 -->\nfoo\nbar\n"
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD001", 1))
	assert.False(t, r.Active("MD001", 3))
	assert.True(t, r.Active("MD002", 1), "unnamed rules are unaffected")
}

func TestResolver_DisableAllRules(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable -->\nfoo\n<!-- mkdlint-enable -->\nbar\n"
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD001", 2))
	assert.False(t, r.Active("MD999", 2))
	assert.True(t, r.Active("MD001", 4))
}

func TestResolver_UnboundedDisableRunsToEOF(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable MD001 -->\nfoo\nbar\nbaz\n"
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD001", 2))
	assert.False(t, r.Active("MD001", 4))
}

func TestResolver_CaptureRestoreRevertsNewDisable(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable MD001 -->\n" + // line 1
		"line1\n" + // line 2
		"<!-- mkdlint-capture -->\n" + // line 3
		"<!-- mkdlint-disable MD002 -->\n" + // line 4
		"line2\n" + // line 5
		"<!-- mkdlint-restore -->\n" + // line 6
		"line3\n" // line 7
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD001", 2), "disable from before the capture stays in effect")
	assert.False(t, r.Active("MD001", 7), "disable from before the capture outlives the restore")
	assert.False(t, r.Active("MD002", 5), "disable issued inside the bracket is honored within it")
	assert.True(t, r.Active("MD002", 7), "restore reverts a disable that began inside the bracket")
}

func TestResolver_CaptureRestoreRevertsReenable(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-disable MD003 -->\n" + // line 1
		"line1\n" + // line 2
		"<!-- mkdlint-capture -->\n" + // line 3
		"<!-- mkdlint-enable MD003 -->\n" + // line 4
		"line2\n" + // line 5
		"<!-- mkdlint-restore -->\n" + // line 6
		"line3\n" // line 7
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.True(t, r.Active("MD003", 5), "enable issued inside the bracket is honored within it")
	assert.False(t, r.Active("MD003", 7), "restore re-disables a rule that was disabled at capture time")
}

func TestResolver_CaptureRestoreUnbalancedIgnored(t *testing.T) {
	t.Parallel()

	content := "<!-- mkdlint-restore -->\n<!-- mkdlint-disable MD004 -->\nfoo\n"
	doc := source.New([]byte(content))
	r := inlineconfig.Resolve(doc, nil, false)

	assert.False(t, r.Active("MD004", 3), "a restore with no matching capture is ignored, not fatal")
}

func TestResolver_StrictModeIgnoresInParagraphDirective(t *testing.T) {
	t.Parallel()

	content := "text <!-- mkdlint-disable-next-line MD013 --> more text\nnext line\n"
	doc := source.New([]byte(content))

	alwaysParagraph := func(line int) bool { return true }

	lenient := inlineconfig.Resolve(doc, alwaysParagraph, false)
	assert.False(t, lenient.Active("MD013", 2))

	strict := inlineconfig.Resolve(doc, alwaysParagraph, true)
	assert.True(t, strict.Active("MD013", 2))
}
