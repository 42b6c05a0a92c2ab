// Package language holds the per-language phrase tables used to prompt the
// generator and lay out the letter, plus a statistical language detector.
package language

import (
	"sort"
	"time"
)

// DefaultCode is substituted whenever detection fails or a code has no table entry.
const DefaultCode = "en"

// French is the only language whose letter date is localized.
const French = "fr"

var names = map[string]string{
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"it": "Italian",
}

var salutations = map[string]string{
	"en": "Dear Hiring Manager,",
	"fr": "Madame, Monsieur,",
	"es": "Estimado/a responsable de contratación,",
	"de": "Sehr geehrte Damen und Herren,",
	"it": "Egregio responsabile delle assunzioni,",
}

var closings = map[string]string{
	"en": "Yours sincerely,",
	"fr": "Cordialement,",
	"es": "Atentamente,",
	"de": "Mit freundlichen Grüßen,",
	"it": "Cordiali saluti,",
}

var exampleOpenings = map[string]string{
	"en": "Dear Hiring Manager,\n\nI am writing to express my interest...",
	"fr": "Madame, Monsieur,\n\nJe me permets de vous adresser...",
	"es": "Estimado/a responsable de contratación,\n\nMe dirijo a ustedes para expresar...",
	"de": "Sehr geehrte Damen und Herren,\n\nHiermit bewerbe ich mich...",
	"it": "Egregio responsabile delle assunzioni,\n\nMi rivolgo a voi per esprimere...",
}

var frenchMonths = map[time.Month]string{
	time.January:   "janvier",
	time.February:  "février",
	time.March:     "mars",
	time.April:     "avril",
	time.May:       "mai",
	time.June:      "juin",
	time.July:      "juillet",
	time.August:    "août",
	time.September: "septembre",
	time.October:   "octobre",
	time.November:  "novembre",
	time.December:  "décembre",
}

// Name maps a code to the full language name. Unknown codes pass through unchanged.
func Name(code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return code
}

// Salutation returns the opening phrase for code, falling back to English.
func Salutation(code string) string {
	return lookup(salutations, code)
}

// Closing returns the closing phrase for code, falling back to English.
func Closing(code string) string {
	return lookup(closings, code)
}

// ExampleOpening returns the worked example used as a style anchor in prompts.
func ExampleOpening(code string) string {
	return lookup(exampleOpenings, code)
}

// Salutations lists the salutation phrases of every supported language.
func Salutations() []string {
	return values(salutations)
}

// Closings lists the closing phrases of every supported language.
func Closings() []string {
	return values(closings)
}

// FrenchMonth returns the French name of m.
func FrenchMonth(m time.Month) string {
	return frenchMonths[m]
}

// Supported returns the codes that have phrase tables, sorted.
func Supported() []string {
	codes := make([]string, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func lookup(table map[string]string, code string) string {
	if v, ok := table[code]; ok {
		return v
	}
	return table[DefaultCode]
}

func values(table map[string]string) []string {
	out := make([]string, 0, len(table))
	for _, code := range Supported() {
		out = append(out, table[code])
	}
	return out
}
