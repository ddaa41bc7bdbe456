package model

import (
	"fmt"
	"strings"
)

// Heading is one entry of the page's heading outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// AuditFacts are static accessibility facts read from the page HTML.
// They are computed without any model call and only supplement the critique.
type AuditFacts struct {
	// Title is the document title.
	Title string `json:"title"`

	// DeclaredLang is the lang attribute of the html element.
	DeclaredLang string `json:"declared_lang,omitempty"`

	// LangValid is true when DeclaredLang is a well-formed BCP 47 tag.
	LangValid bool `json:"lang_valid"`

	// DetectedLang is the ISO 639-1 code detected from the main text.
	DetectedLang string `json:"detected_lang,omitempty"`

	// LangMismatch is true when the declared and detected languages differ.
	LangMismatch bool `json:"lang_mismatch"`

	Images           int `json:"images"`
	ImagesMissingAlt int `json:"images_missing_alt"`
	ImagesEmptyAlt   int `json:"images_empty_alt"`

	Headings      []Heading `json:"headings,omitempty"`
	H1Count       int       `json:"h1_count"`
	SkippedLevels []string  `json:"skipped_levels,omitempty"`

	FormControls      int `json:"form_controls"`
	UnlabeledControls int `json:"unlabeled_controls"`

	Links          int      `json:"links"`
	AmbiguousLinks []string `json:"ambiguous_links,omitempty"`

	// MissingLandmarks lists landmark elements the page does not use.
	MissingLandmarks []string `json:"missing_landmarks,omitempty"`

	// MainTextLength is the length in characters of the extracted main content.
	MainTextLength int `json:"main_text_length"`
}

// IssueCount returns the number of static problems found.
func (f *AuditFacts) IssueCount() int {
	if f == nil {
		return 0
	}
	n := f.ImagesMissingAlt + f.UnlabeledControls + len(f.AmbiguousLinks) + len(f.SkippedLevels)
	if f.DeclaredLang == "" || !f.LangValid || f.LangMismatch {
		n++
	}
	if f.H1Count != 1 {
		n++
	}
	return n
}

// Summary returns a one-line description suitable for a progress message.
func (f *AuditFacts) Summary() string {
	if f == nil {
		return ""
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("%d images (%d missing alt)", f.Images, f.ImagesMissingAlt))
	parts = append(parts, fmt.Sprintf("%d headings", len(f.Headings)))
	if f.FormControls > 0 {
		parts = append(parts, fmt.Sprintf("%d form controls (%d unlabeled)", f.FormControls, f.UnlabeledControls))
	}
	if f.DeclaredLang == "" {
		parts = append(parts, "no lang attribute")
	} else {
		parts = append(parts, "lang="+f.DeclaredLang)
	}
	return strings.Join(parts, ", ")
}
