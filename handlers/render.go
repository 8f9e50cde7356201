package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"clinicfront/models"
	"clinicfront/services/content"
	"clinicfront/services/storage"
	"clinicfront/templates"
	"clinicfront/utils"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

var md = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

// renderMarkdown turns About and Blog content into HTML. Raw HTML in the
// source is dropped by goldmark's default renderer.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		utils.GetLogger().Warn("markdown render failed", zap.Error(err))
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify lower-cases a name and turns spaces into dashes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	return slugStrip.ReplaceAllString(s, "")
}

func formatDate(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2 Jan 2006")
}

func formatDateTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(utils.ReportTimeLayout)
}

var funcMap = template.FuncMap{
	"markdown": renderMarkdown,
	"media":    storage.ResolveMedia,
	"slug":     Slugify,
	"date":     formatDate,
	"datetime": formatDateTime,
	"display":  content.Display,
	"lower":    strings.ToLower,
	"add":      func(a, b int) int { return a + b },
	"dict": func(values ...any) map[string]any {
		d := make(map[string]any, len(values)/2)
		for i := 0; i+1 < len(values); i += 2 {
			d[fmt.Sprint(values[i])] = values[i+1]
		}
		return d
	},
}

// LoadTemplates parses every embedded page.
func LoadTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcMap).ParseFS(templates.HTML, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("handlers: parse templates: %w", err)
	}
	return t, nil
}
