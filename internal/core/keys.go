package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeKey is the single matching key used wherever a description is
// compared against a category name: trimmed and case-folded.
// A Caser is stateful, so each call gets its own.
func NormalizeKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// FindCategory returns the category of the given kind whose name matches
// description, if any.
func FindCategory(cats []Category, kind CategoryKind, description string) (Category, bool) {
	key := NormalizeKey(description)
	for _, c := range cats {
		if c.Kind == kind && NormalizeKey(c.Name) == key {
			return c, true
		}
	}
	return Category{}, false
}
