// Package cql builds Confluence Query Language expressions from free text.
//
// User text is always escaped before interpolation so quotes and backslashes
// in a query cannot break the expression syntax or inject operators.
package cql

import "strings"

// MaxKeywords caps how many keywords a single expression fans out over.
const MaxKeywords = 3

// minKeywordLen filters out short stop-word-like tokens.
const minKeywordLen = 2

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote wraps free text in a CQL string literal, escaping \ and ".
func quote(text string) string {
	return `"` + phraseEscaper.Replace(text) + `"`
}

// TitleContains matches documents whose title contains the given text.
func TitleContains(text string) string {
	return "title ~ " + quote(text)
}

// TextContains matches documents whose body contains the given phrase.
func TextContains(text string) string {
	return "text ~ " + quote(text)
}

// Any joins expressions with OR, parenthesized.
func Any(exprs ...string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return "(" + strings.Join(exprs, " OR ") + ")"
}

// Keywords splits free text on whitespace and keeps tokens longer than two
// characters, preserving order.
func Keywords(text string) []string {
	var kws []string
	for _, tok := range strings.Fields(text) {
		if len(tok) > minKeywordLen {
			kws = append(kws, tok)
		}
	}
	return kws
}
