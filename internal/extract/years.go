// Package extract derives structured features from free text: years-of-experience
// ranges, sentence units for recall, and candidate tenure from work history.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// YearsRange is a years-of-experience requirement. High is nil when the range is open-ended.
type YearsRange struct {
	Low    float64  `json:"low"`
	High   *float64 `json:"high"`
	IsPlus bool     `json:"is_plus"`
}

// Closed reports whether the range has an upper bound that a candidate can exceed.
func (r *YearsRange) Closed() bool {
	return r != nil && r.High != nil && !r.IsPlus
}

var spelledNumbers = []struct {
	re    *regexp.Regexp
	digit string
}{
	{regexp.MustCompile(`\bzero\b`), "0"},
	{regexp.MustCompile(`\bone\b`), "1"},
	{regexp.MustCompile(`\btwo\b`), "2"},
	{regexp.MustCompile(`\bthree\b`), "3"},
	{regexp.MustCompile(`\bfour\b`), "4"},
	{regexp.MustCompile(`\bfive\b`), "5"},
	{regexp.MustCompile(`\bsix\b`), "6"},
	{regexp.MustCompile(`\bseven\b`), "7"},
	{regexp.MustCompile(`\beight\b`), "8"},
	{regexp.MustCompile(`\bnine\b`), "9"},
	{regexp.MustCompile(`\bten\b`), "10"},
}

const num = `(\d+(?:\.\d+)?)`

type yearsPattern struct {
	re     *regexp.Regexp
	handle func(m []string) *YearsRange
}

// Order matters: earlier patterns win when several overlap.
var yearsPatterns = []yearsPattern{
	{regexp.MustCompile(`minimum\s+` + num + `\s+months?`), openMonths},
	{regexp.MustCompile(`at least\s+` + num + `\s+months?`), openMonths},
	{regexp.MustCompile(num + `\s+to\s+` + num + `\s+months?`), func(m []string) *YearsRange {
		high := parseNum(m[2]) / 12
		return &YearsRange{Low: parseNum(m[1]) / 12, High: &high}
	}},
	{regexp.MustCompile(num + `\s*-\s*` + num + `\+\s*years?`), func(m []string) *YearsRange {
		high := parseNum(m[2])
		return &YearsRange{Low: parseNum(m[1]), High: &high, IsPlus: true}
	}},
	{regexp.MustCompile(num + `\s*\+\s*years?`), openYears},
	{regexp.MustCompile(`minimum of\s+` + num + `\s+years?`), openYears},
	{regexp.MustCompile(num + `\s+or more years?`), openYears},
	{regexp.MustCompile(`at least\s+` + num + `\s+years?`), openYears},
	{regexp.MustCompile(`over\s+` + num + `\s+years?`), openYears},
	{regexp.MustCompile(`between\s+` + num + `\s+and\s+` + num + `\s+years?`), closedYears},
	{regexp.MustCompile(num + `\s*(?:to|-)\s*` + num + `\s+years?`), closedYears},
	{regexp.MustCompile(`minimum\s+` + num + `\s+years?`), openYears},
	{regexp.MustCompile(num + `\s+years?`), func(m []string) *YearsRange {
		v := parseNum(m[1])
		return &YearsRange{Low: v, High: &v}
	}},
}

func openMonths(m []string) *YearsRange {
	return &YearsRange{Low: parseNum(m[1]) / 12, IsPlus: true}
}

func openYears(m []string) *YearsRange {
	return &YearsRange{Low: parseNum(m[1]), IsPlus: true}
}

func closedYears(m []string) *YearsRange {
	high := parseNum(m[2])
	return &YearsRange{Low: parseNum(m[1]), High: &high}
}

func parseNum(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// NormalizeNumbers lower-cases text and replaces the spelled-out numbers zero
// through ten with digits.
func NormalizeNumbers(text string) string {
	text = strings.ToLower(text)
	for _, n := range spelledNumbers {
		text = n.re.ReplaceAllString(text, n.digit)
	}
	return text
}

// ExtractExperienceYears parses a years-of-experience requirement out of text,
// e.g. "5+ years of backend experience" or "two to four years". Returns nil
// when no pattern matches.
func ExtractExperienceYears(text string) *YearsRange {
	text = NormalizeNumbers(text)
	for _, p := range yearsPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			return p.handle(m)
		}
	}
	return nil
}
