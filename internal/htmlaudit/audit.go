package htmlaudit

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/text/language"

	"github.com/nao1215/accessdoc/internal/model"
)

const (
	maxHeadingText = 80

	// minDetectionText is the shortest main text used for language detection.
	minDetectionText = 40
)

// ambiguousLinkTexts are link labels that say nothing about the destination.
var ambiguousLinkTexts = map[string]struct{}{
	"click here": {},
	"click":      {},
	"here":       {},
	"more":       {},
	"read more":  {},
	"learn more": {},
	"link":       {},
	"this":       {},
	"details":    {},
	"continue":   {},
	"go":         {},
}

// landmarks maps a landmark element to its equivalent ARIA role.
var landmarks = []struct {
	element string
	role    string
}{
	{"header", "banner"},
	{"nav", "navigation"},
	{"main", "main"},
	{"footer", "contentinfo"},
}

// Audit extracts static accessibility facts from html. pageURL is used to
// resolve relative references during main content extraction.
func Audit(pageURL, html string) (*model.AuditFacts, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	facts := &model.AuditFacts{
		Title: collapse(doc.Find("title").First().Text()),
	}

	auditImages(doc, facts)
	auditHeadings(doc, facts)
	auditForms(doc, facts)
	auditLinks(doc, facts)
	auditLandmarks(doc, facts)

	text := mainText(pageURL, html, doc)
	facts.MainTextLength = utf8.RuneCountInString(text)
	auditLanguage(doc, text, facts)

	return facts, nil
}

func auditImages(doc *goquery.Document, facts *model.AuditFacts) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		facts.Images++
		alt, ok := s.Attr("alt")
		switch {
		case !ok:
			if !hiddenFromAssistiveTech(s) {
				facts.ImagesMissingAlt++
			}
		case strings.TrimSpace(alt) == "":
			facts.ImagesEmptyAlt++
		}
	})
}

func hiddenFromAssistiveTech(s *goquery.Selection) bool {
	if s.AttrOr("aria-hidden", "") == "true" {
		return true
	}
	role := s.AttrOr("role", "")
	return role == "presentation" || role == "none"
}

func auditHeadings(doc *goquery.Document, facts *model.AuditFacts) {
	prev := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := int(goquery.NodeName(s)[1] - '0')
		facts.Headings = append(facts.Headings, model.Heading{
			Level: level,
			Text:  truncate(collapse(s.Text()), maxHeadingText),
		})
		if level == 1 {
			facts.H1Count++
		}
		if prev > 0 && level > prev+1 {
			facts.SkippedLevels = append(facts.SkippedLevels, fmt.Sprintf("h%d -> h%d", prev, level))
		}
		prev = level
	})
}

func auditForms(doc *goquery.Document, facts *model.AuditFacts) {
	labelled := make(map[string]struct{})
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		labelled[s.AttrOr("for", "")] = struct{}{}
	})

	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "input" {
			switch strings.ToLower(s.AttrOr("type", "text")) {
			case "hidden", "submit", "button", "reset", "image":
				return
			}
		}
		facts.FormControls++
		if !hasLabel(s, labelled) {
			facts.UnlabeledControls++
		}
	})
}

func hasLabel(s *goquery.Selection, labelled map[string]struct{}) bool {
	if strings.TrimSpace(s.AttrOr("aria-label", "")) != "" {
		return true
	}
	if strings.TrimSpace(s.AttrOr("aria-labelledby", "")) != "" {
		return true
	}
	if id := s.AttrOr("id", ""); id != "" {
		if _, ok := labelled[id]; ok {
			return true
		}
	}
	return s.ParentsFiltered("label").Length() > 0
}

func auditLinks(doc *goquery.Document, facts *model.AuditFacts) {
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		facts.Links++

		name := accessibleName(s)
		key := strings.ToLower(strings.Trim(name, " .!>»→"))
		if name != "" {
			if _, ok := ambiguousLinkTexts[key]; !ok {
				return
			}
		} else {
			name = "(empty)"
			key = name
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		facts.AmbiguousLinks = append(facts.AmbiguousLinks, name)
	})
}

// accessibleName approximates the name a screen reader announces for a link.
func accessibleName(s *goquery.Selection) string {
	if label := collapse(s.AttrOr("aria-label", "")); label != "" {
		return label
	}
	if text := collapse(s.Text()); text != "" {
		return text
	}
	var alt string
	s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt = collapse(img.AttrOr("alt", ""))
		return alt == ""
	})
	if alt != "" {
		return alt
	}
	return collapse(s.AttrOr("title", ""))
}

func auditLandmarks(doc *goquery.Document, facts *model.AuditFacts) {
	for _, lm := range landmarks {
		if doc.Find(lm.element).Length() > 0 {
			continue
		}
		if doc.Find(fmt.Sprintf(`[role=%q]`, lm.role)).Length() > 0 {
			continue
		}
		facts.MissingLandmarks = append(facts.MissingLandmarks, lm.element)
	}
}

// mainText returns the readable main content, falling back to the body text
// when readability extraction fails.
func mainText(pageURL, html string, doc *goquery.Document) string {
	if u, err := url.Parse(pageURL); err == nil {
		parser := readability.NewParser()
		article, err := parser.Parse(strings.NewReader(html), u)
		if err == nil && article.Content != "" {
			if content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
				if text := collapse(content.Text()); text != "" {
					return text
				}
			}
		}
	}
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return collapse(body.Text())
}

func auditLanguage(doc *goquery.Document, text string, facts *model.AuditFacts) {
	facts.DeclaredLang = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))

	var declaredBase string
	if facts.DeclaredLang != "" {
		tag, err := language.Parse(facts.DeclaredLang)
		if err == nil {
			facts.LangValid = true
			base, _ := tag.Base()
			declaredBase = base.String()
		}
	}

	if utf8.RuneCountInString(text) < minDetectionText {
		return
	}
	detected, ok := DetectLanguage(text)
	if !ok {
		return
	}
	facts.DetectedLang = detected
	if declaredBase != "" && !strings.EqualFold(declaredBase, detected) {
		facts.LangMismatch = true
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
