package service

import (
	"regexp"
	"strings"
)

// The normalizer strips surface noise (markup, URLs, casing) before text is
// embedded. Ingest and query text must go through the identical chain, in the
// identical order, or similarity scores silently degrade.
var (
	reFencedCode    = regexp.MustCompile("(?s)```.*?```")
	reInlineCode    = regexp.MustCompile("`[^`\n]*`")
	reHeading       = regexp.MustCompile(`#{1,6}\s*(.*)`)
	reImage         = regexp.MustCompile(`!\[(.*?)\]\(.*?\)`)
	reLink          = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	reURL           = regexp.MustCompile(`(https?://)?(www\.)?([^\s]+\.[^\s]+)`)
	reMention       = regexp.MustCompile(`<@[!&]?\d+>`)
	reHTMLTag       = regexp.MustCompile(`<[^>]*>`)
	reHorizRule     = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`//.*`)
	reWhitespaceRun = regexp.MustCompile(`\s+`)
	reNewlineRun    = regexp.MustCompile(`\n{3,}`)
	reDisallowed    = regexp.MustCompile(`[^a-zA-Z0-9\s\-_./:?=&]`)
)

// Normalize applies the deterministic cleanup chain used for every piece of
// text before it is embedded. It is pure, idempotent and never fails; empty
// input yields an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	out := reFencedCode.ReplaceAllString(text, "")
	out = reInlineCode.ReplaceAllString(out, "")
	out = reHeading.ReplaceAllString(out, "$1")
	out = reImage.ReplaceAllString(out, "$1")
	out = reLink.ReplaceAllString(out, "$1")
	// Simplify URLs to domain+path, dropping protocol and www.
	out = reURL.ReplaceAllString(out, "$3")
	out = reMention.ReplaceAllString(out, "")
	out = reHTMLTag.ReplaceAllString(out, "")
	out = reHorizRule.ReplaceAllString(out, "")
	out = reBlockComment.ReplaceAllString(out, "")
	// Line comments are removed after URL simplification so the "//" of a
	// protocol can no longer be mistaken for one.
	out = reLineComment.ReplaceAllString(out, "")
	out = reWhitespaceRun.ReplaceAllString(out, " ")
	out = reNewlineRun.ReplaceAllString(out, "\n\n")
	out = reDisallowed.ReplaceAllString(out, "")

	return strings.ToLower(strings.TrimSpace(out))
}
