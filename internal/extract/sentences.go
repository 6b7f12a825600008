package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	lineBreak    = regexp.MustCompile(`\r?\n+|\s[•▪●◦]\s`)
	sentenceEnd  = regexp.MustCompile(`[。！？；]+|[.!?;]+(?:\s+|$)`)
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•·▪●◦]|\d+[.)])\s+`)
)

// SplitSentences splits a narrative block into trimmed, de-duplicated sentence
// units. Line breaks and bullet markers count as boundaries; decimal points
// inside numbers do not.
func SplitSentences(text string) []string {
	text = cleanText(text)
	var out []string
	seen := make(map[string]struct{})
	for _, line := range lineBreak.Split(text, -1) {
		line = bulletPrefix.ReplaceAllString(line, "")
		for _, s := range sentenceEnd.Split(line, -1) {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// cleanText replaces invalid UTF-8 sequences with the replacement character.
func cleanText(text string) string {
	if !utf8.ValidString(text) {
		return strings.ToValidUTF8(text, "�")
	}
	return text
}
