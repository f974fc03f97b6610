package models

import "strings"

// languageMultipliers scales expected review time by how dense a language
// typically is to read. Anything not listed reads at the plain-text rate.
var languageMultipliers = map[string]float64{
	"rust":       1.5,
	"c":          1.5,
	"cpp":        1.5,
	"c++":        1.5,
	"java":       1.4,
	"typescript": 1.3,
	"javascript": 1.3,
	"go":         1.3,
	"kotlin":     1.3,
	"swift":      1.3,
	"python":     1.2,
	"ruby":       1.2,
	"php":        1.2,
	"csharp":     1.2,
	"c#":         1.2,
}

// BaseReviewTimePerLine is the expected review time for one line of
// plain-text-like code, before the language multiplier.
const BaseReviewTimePerLine = 500 // ms

// LanguageMultiplier returns the review-time multiplier for a language.
// Unknown or empty languages get 1.0.
func LanguageMultiplier(language string) float64 {
	if m, ok := languageMultipliers[strings.ToLower(language)]; ok {
		return m
	}
	return 1.0
}

// ExpectedReviewTime estimates how long an adequate review of a change of
// the given size should take, in milliseconds.
func ExpectedReviewTime(linesOfCode int, language string) float64 {
	if linesOfCode <= 0 {
		return 0
	}
	return float64(linesOfCode) * BaseReviewTimePerLine * LanguageMultiplier(language)
}
