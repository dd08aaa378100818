package openrouter

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/forPelevin/reelforge/internal/types"
)

// YouTube rejects longer values.
const (
	maxTitleRunes       = 100
	maxDescriptionRunes = 5000
	maxTagChars         = 500
)

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "being": {}, "could": {}, "every": {},
	"from": {}, "have": {}, "just": {}, "like": {}, "more": {}, "only": {},
	"other": {}, "really": {}, "should": {}, "some": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "they": {}, "this": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "will": {}, "with": {},
	"would": {}, "your": {}, "says": {}, "user": {}, "reddit": {}, "asks": {},
}

// FallbackMetadata derives metadata from the content when the model reply
// cannot be used.
func FallbackMetadata(content string) types.VideoMetadata {
	first := strings.TrimSpace(content)
	if i := strings.IndexAny(first, "\n.?!"); i > 0 {
		first = first[:i+1]
	}
	first = strings.Join(strings.Fields(first), " ")
	title := cases.Title(language.English).String(truncate(first, 90))
	title = sanitizeYouTube(title)
	if title == "" {
		title = "Reddit Stories"
	}

	tags := topWords(content, 10)
	return types.VideoMetadata{
		Title:         title,
		TitleKeywords: tags[:min(3, len(tags))],
		Tags:          limitTags(tags),
		Description:   truncate(sanitizeYouTube(strings.Join(strings.Fields(content), " ")), 500),
	}
}

func topWords(s string, n int) []string {
	counts := map[string]int{}
	first := map[string]int{}
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for i, w := range words {
		w = strings.Trim(w, "'")
		if len([]rune(w)) < 4 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, seen := first[w]; !seen {
			first[w] = i
		}
		counts[w]++
	}
	out := make([]string, 0, len(counts))
	for w := range counts {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return first[out[i]] < first[out[j]]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, k := range in {
		k = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(k), "#"))
		k = sanitizeYouTube(k)
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

// limitTags keeps tags while their combined length stays within the
// upload limit.
func limitTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	total := 0
	for _, t := range tags {
		n := len([]rune(t))
		if total > 0 {
			n++
		}
		if total+n > maxTagChars {
			break
		}
		total += n
		out = append(out, t)
	}
	return out
}

func sanitizeYouTube(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	return strings.TrimSpace(s)
}
