package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/nao1215/accessdoc/internal/model"
)

// ScreenshotUnavailable replaces the visual critique when no screenshot was captured.
const ScreenshotUnavailable = "Screenshot data was not provided or was invalid."

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.tmpl"))

// categoryScope describes what each category covers in the synthesis prompt.
var categoryScope = map[model.Category]string{
	model.CategoryStructure:    "how well the markup supports navigation (heading hierarchy, landmarks such as main and nav, ARIA roles)",
	model.CategoryReadability:  "how easy the content is to read and visually parse (font size, contrast, typography, layout, spacing)",
	model.CategoryNavigability: "how easy it is to navigate and operate controls (link text, visual distinction of links and buttons, target size)",
	model.CategoryForms:        "accessibility of input fields (labels, fieldset grouping, visual clarity of form elements)",
	model.CategoryMedia:        "accessibility of images, video and other media (alt text, captions)",
}

type categoryItem struct {
	Name  string
	Scope string
}

type htmlAuditData struct {
	HTML  string
	Facts *model.AuditFacts
}

type synthesisData struct {
	HTMLCritique   string
	VisualCritique string
	Categories     []categoryItem
}

// RenderHTMLAudit renders the HTML audit prompt. facts may be nil.
func RenderHTMLAudit(html string, facts *model.AuditFacts) (string, error) {
	return render("html_audit.tmpl", htmlAuditData{HTML: html, Facts: facts})
}

// VisualAudit returns the visual audit prompt sent with the screenshot.
func VisualAudit() (string, error) {
	return render("visual_audit.tmpl", nil)
}

// RenderSynthesis renders the synthesis prompt from both critiques.
func RenderSynthesis(htmlCritique, visualCritique string) (string, error) {
	cats := model.Categories()
	items := make([]categoryItem, 0, len(cats))
	for _, c := range cats {
		items = append(items, categoryItem{Name: c.String(), Scope: categoryScope[c]})
	}
	return render("synthesis.tmpl", synthesisData{
		HTMLCritique:   htmlCritique,
		VisualCritique: visualCritique,
		Categories:     items,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
