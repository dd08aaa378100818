package curation

import (
	"html"
	"regexp"
	"strings"
)

var (
	reMDLink   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reURL      = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	reEmphasis = regexp.MustCompile("[*_~`]+")
	reQuote    = regexp.MustCompile(`(?m)^\s*(&gt;|>)+\s?`)
	reEdit     = regexp.MustCompile(`(?is)\bedit\s*\d*\s*:.*$`)
)

// CleanText turns comment markdown into plain text suitable for speech.
func CleanText(s string) string {
	s = reQuote.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = reMDLink.ReplaceAllString(s, "$1")
	s = reURL.ReplaceAllString(s, "")
	s = reEdit.ReplaceAllString(s, "")
	s = reEmphasis.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
