package document

import (
	"regexp"
	"strings"
)

var (
	tagRE        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// entityReplacer decodes the named entities Confluence storage format emits
// in practice. Anything rarer is left as-is.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Clean strips markup tags from storage-format bodies and decodes common
// entities, collapsing all whitespace runs to a single space.
//
// This is deliberately not an HTML parser: tags are anything between < and >,
// so malformed markup may leave stray characters but never fails.
func Clean(markup string) string {
	if markup == "" {
		return ""
	}
	text := tagRE.ReplaceAllString(markup, "")
	text = entityReplacer.Replace(text)
	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
