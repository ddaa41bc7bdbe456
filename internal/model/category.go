package model

import (
	"slices"
	"strings"
)

// Category is one of the fixed accessibility dimensions scored in a report.
type Category string

const (
	// CategoryStructure covers landmarks, headings and the semantic element tree.
	CategoryStructure Category = "Structure & Semantics"
	// CategoryReadability covers contrast, typography and visual layout.
	CategoryReadability Category = "Readability & Visual Clarity"
	// CategoryNavigability covers link text, focus order and interactive targets.
	CategoryNavigability Category = "Navigability & Interactivity"
	// CategoryForms covers labels, instructions and error handling of inputs.
	CategoryForms Category = "Forms & Inputs"
	// CategoryMedia covers alternative text and captions for non-text content.
	CategoryMedia Category = "Media Accessibility"
)

// SentinelCategory is the reserved category the model pipeline uses to report
// an internal failure through the normal report channel. It is never a real
// category and never appears in a successful report.
const SentinelCategory = "Error"

// categories is the canonical evaluation order.
var categories = []Category{
	CategoryStructure,
	CategoryReadability,
	CategoryNavigability,
	CategoryForms,
	CategoryMedia,
}

// Categories returns the five categories in canonical order.
// The returned slice is a copy and may be modified by the caller.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// String returns the display label of the category.
func (c Category) String() string {
	return string(c)
}

// Index returns the position of the category in canonical order, or -1.
func (c Category) Index() int {
	for i, known := range categories {
		if known == c {
			return i
		}
	}
	return -1
}

// ParseCategory maps a model-produced label onto a known category.
// Matching ignores case, surrounding whitespace, repeated inner spaces and
// the difference between "&" and "and". A shortened label such as
// "Readability" or "Media" matches when its words are the leading words of
// exactly one category. The second return value is false when the label
// does not name one of the five categories.
func ParseCategory(label string) (Category, bool) {
	key := categoryKey(label)
	if len(key) == 0 {
		return "", false
	}

	var (
		prefixMatch Category
		matches     int
	)
	for _, c := range categories {
		known := categoryKey(string(c))
		if slices.Equal(known, key) {
			return c, true
		}
		if len(key) < len(known) && slices.Equal(known[:len(key)], key) {
			prefixMatch = c
			matches++
		}
	}
	if matches == 1 {
		return prefixMatch, true
	}
	return "", false
}

// IsSentinelCategory reports whether label is the upstream failure sentinel.
func IsSentinelCategory(label string) bool {
	return strings.TrimSpace(label) == SentinelCategory
}

func categoryKey(label string) []string {
	fields := strings.Fields(strings.ToLower(label))
	for i, f := range fields {
		if f == "and" {
			fields[i] = "&"
		}
	}
	return fields
}
