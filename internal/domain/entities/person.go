// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Person is the read-only projection of a family member used by the graph
// engine. Its lifecycle is owned outside the engine.
type Person struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Surname     string     `json:"surname,omitempty"` // Falls back to the last token of DisplayName
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	DeathDate   *time.Time `json:"deathDate,omitempty"`
	IsDeceased  bool       `json:"isDeceased"`
	PhotoURL    string     `json:"photoUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// BirthYear returns the birth year when the birth date is known.
func (p Person) BirthYear() (int, bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	return p.BirthDate.Year(), true
}

// FamilyName returns the explicit surname, or the last word of the display name.
func (p Person) FamilyName() string {
	if s := strings.TrimSpace(p.Surname); s != "" {
		return s
	}
	fields := strings.Fields(p.DisplayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// NormalizeName lowercases a name and strips diacritics, so "Ó Súilleabháin"
// and "o suilleabhain" compare equal.
func NormalizeName(name string) string {
	folded, _, err := transform.String(foldMarks(), strings.TrimSpace(name))
	if err != nil {
		folded = strings.TrimSpace(name)
	}
	return strings.ToLower(folded)
}

// foldMarks returns a fresh transformer; transform.Chain is stateful and
// must not be shared between goroutines.
func foldMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// YearsBetween returns the fractional number of years from a to b.
// The result is negative when b is before a.
func YearsBetween(a, b time.Time) float64 {
	const hoursPerYear = 24 * 365.2425
	return b.Sub(a).Hours() / hoursPerYear
}
