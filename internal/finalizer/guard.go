package finalizer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"bantz/pkg/types"
)

// Guard is the no-new-facts check: every numeric, time or date token in a
// candidate reply must be traceable to one of the allowed source texts.
// It is deliberately heuristic (regex token extraction, not semantic);
// over-blocking costs one fallback to the draft, a hallucinated date costs
// user trust.
type Guard struct {
	// CheckCurrency also extracts currency and percent expressions.
	CheckCurrency bool
}

var (
	timeRe = regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)
	// ISO, slash and dotted day-first forms. Dotted dates require a four
	// digit year so decimals are not misread as dates.
	dateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}\.\d{1,2}\.\d{4})\b`)
	numberRe   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	currencyRe = regexp.MustCompile(`(?:[$€₺]\s?\d+(?:[.,]\d+)?)|(?:\d+(?:[.,]\d+)?\s?(?:₺|TL|%))|(?:%\s?\d+(?:[.,]\d+)?)`)
)

// facts is one extraction result.
type facts struct {
	numbers map[string]bool
	times   map[string]bool
	dates   map[string]bool
}

// Check extracts facts from every source and from the candidate and reports
// any candidate token absent from the union of the sources.
func (g *Guard) Check(sources []string, candidate string) types.GuardResult {
	allowed := facts{numbers: map[string]bool{}, times: map[string]bool{}, dates: map[string]bool{}}
	for _, source := range sources {
		g.extractInto(&allowed, source)
	}
	got := facts{numbers: map[string]bool{}, times: map[string]bool{}, dates: map[string]bool{}}
	g.extractInto(&got, candidate)

	result := types.GuardResult{
		Passed:           true,
		AllowedNumbers:   setToSlice(allowed.numbers),
		AllowedTimes:     setToSlice(allowed.times),
		AllowedDates:     setToSlice(allowed.dates),
		CandidateNumbers: setToSlice(got.numbers),
		CandidateTimes:   setToSlice(got.times),
		CandidateDates:   setToSlice(got.dates),
	}

	for _, token := range result.CandidateTimes {
		if !allowed.times[token] {
			result.Violations = append(result.Violations, token)
		}
	}
	for _, token := range result.CandidateDates {
		if !allowed.dates[token] {
			result.Violations = append(result.Violations, token)
		}
	}
	for _, token := range result.CandidateNumbers {
		if !allowed.numbers[token] {
			result.Violations = append(result.Violations, token)
		}
	}

	result.Passed = len(result.Violations) == 0
	return result
}

// extractInto pulls times first, then dates, then remaining numbers, masking
// each match so time/date components are not double counted as bare numbers.
func (g *Guard) extractInto(dst *facts, text string) {
	masked := text

	for _, match := range timeRe.FindAllString(masked, -1) {
		dst.times[normalizeTime(match)] = true
	}
	masked = timeRe.ReplaceAllString(masked, " ")

	for _, match := range dateRe.FindAllString(masked, -1) {
		dst.dates[match] = true
	}
	masked = dateRe.ReplaceAllString(masked, " ")

	if g.CheckCurrency {
		// Currency amounts also land in the number set: the amount itself
		// must be sourced regardless of the symbol around it.
		for _, match := range currencyRe.FindAllString(masked, -1) {
			if amount := numberRe.FindString(match); amount != "" {
				dst.numbers[normalizeNumber(amount)] = true
			}
		}
	}

	for _, match := range numberRe.FindAllString(masked, -1) {
		dst.numbers[normalizeNumber(match)] = true
	}
}

// normalizeTime strips a leading zero from a two-digit hour so "09:30" and
// "9:30" compare equal.
func normalizeTime(t string) string {
	if len(t) == 5 && t[0] == '0' {
		return t[1:]
	}
	return t
}

// normalizeNumber maps decimal-comma and trailing-zero variants to one
// canonical form ("2,50" and "2.5" both become "2.5").
func normalizeNumber(n string) string {
	canonical := strings.ReplaceAll(n, ",", ".")
	if f, err := strconv.ParseFloat(canonical, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return canonical
}

func setToSlice(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for token := range set {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
