// Package validate holds the per-field registration validators. Every
// validator is a total function over its input text: no I/O, no state, no
// panics. Configurable validators are built by constructors so the deny and
// ban lists stay a flow configuration, not a code fork.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name reports whether the input splits into one or more whitespace-separated
// tokens consisting solely of Latin or Cyrillic letters. Empty input fails.
func Name(s string) bool {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return false
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.Is(unicode.Latin, r) && !unicode.Is(unicode.Cyrillic, r) {
				return false
			}
		}
	}
	return true
}

// NewOriginValidator builds a validator that rejects inputs matching an entry
// of the deny set. Input and deny entries go through the same trim +
// title-case normalization, so membership is exact-match and case-insensitive
// but never a substring check.
func NewOriginValidator(denied []string) func(string) bool {
	titler := cases.Title(language.Und)
	denySet := make(map[string]struct{}, len(denied))
	for _, place := range denied {
		denySet[titler.String(strings.TrimSpace(place))] = struct{}{}
	}
	return func(s string) bool {
		_, banned := denySet[titler.String(strings.TrimSpace(s))]
		return !banned
	}
}

// NewVehicleValidator builds a validator that rejects inputs containing any
// banned token as a whole word, case-insensitively. RE2's \b is ASCII-only
// and misses Cyrillic tokens, so word boundaries are taken as runs of letters
// and digits instead.
func NewVehicleValidator(banned []string) func(string) bool {
	banSet := make(map[string]struct{}, len(banned))
	for _, token := range banned {
		banSet[strings.ToLower(strings.TrimSpace(token))] = struct{}{}
	}
	return func(s string) bool {
		for _, word := range splitWords(s) {
			if _, hit := banSet[strings.ToLower(word)]; hit {
				return false
			}
		}
		return true
	}
}

// splitWords cuts the input into maximal runs of letters and digits.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NewYearValidator builds a validator accepting exactly a 4-digit year
// followed by one of the accepted unit suffixes, with the year inside
// [min, max]. Any deviation in spacing or suffix fails.
func NewYearValidator(min, max int, suffixes []string) func(string) bool {
	quoted := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(suffix)))
	}
	re := regexp.MustCompile(fmt.Sprintf(`^(\d{4})\s*(?:%s)$`, strings.Join(quoted, "|")))
	return func(s string) bool {
		m := re.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
		if m == nil {
			return false
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		return year >= min && year <= max
	}
}

var leadingYearRe = regexp.MustCompile(`^(\d{4})`)

// LeadingYear extracts the 4-digit year from an input that passed the year
// validator. Inputs without a leading year come back trimmed and unchanged.
func LeadingYear(s string) string {
	s = strings.TrimSpace(s)
	if m := leadingYearRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
