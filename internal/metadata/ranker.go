package metadata

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Album names that point at compilations or live recordings.
var compilationWords = [...]string{"hits", "live", "best"}

const (
	monthName = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	dayNumber = `\d{1,2}(?:st|nd|rd|th)?`
)

// Bootlegs are often named after the show date. A bare year is not a date.
var datePatterns = [...]*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}[-./]\d{1,2}[-./]\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[-./]\d{1,2}[-./]\d{2,4}\b`),
	regexp.MustCompile(`(?i)\b` + monthName + `\s+` + dayNumber + `(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)\b` + dayNumber + `\s+` + monthName + `(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)\b` + monthName + `,?\s+\d{4}\b`),
}

// Rank returns the index of the most plausible candidate, or -1 when none
// is convincing. Candidates should already be ordered by SortByRelease.
// Album, year and track set on hint are matched exactly first; a single
// match wins outright.
func Rank(candidates []Candidate, hint *Record) int {
	if i, ok := narrowByHint(candidates, hint); ok {
		return i
	}

	single := -1
	for i, c := range candidates {
		if skipCandidate(c) {
			continue
		}
		if c.Kind == KindSingle || c.Kind == KindEP {
			if single < 0 {
				single = i
			}
			continue
		}
		// A single released well before its album is usually the
		// better known release.
		if single >= 0 && c.Year-candidates[single].Year >= 2 {
			return single
		}
		return i
	}
	return single
}

func narrowByHint(candidates []Candidate, hint *Record) (int, bool) {
	if hint == nil || (hint.Album == "" && hint.Year == 0 && hint.Track == 0) {
		return -1, false
	}

	match := -1
	for i, c := range candidates {
		if hint.Album != "" && c.Album != hint.Album {
			continue
		}
		if hint.Year != 0 && c.Year != hint.Year {
			continue
		}
		if hint.Track != 0 && c.Track != hint.Track {
			continue
		}
		if match >= 0 {
			return -1, false
		}
		match = i
	}
	return match, match >= 0
}

func skipCandidate(c Candidate) bool {
	if c.Year == 0 || c.Status == StatusPromotional {
		return true
	}
	album := cases.Fold().String(c.Album)
	for _, w := range compilationWords {
		if strings.Contains(album, w) {
			return true
		}
	}
	return looksLikeDate(c.Album)
}

func looksLikeDate(s string) bool {
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
