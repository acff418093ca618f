// Package views holds the embedded page and email templates and the data
// passed to them.
package views

import (
	"embed"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"alternanceetmoi.fr/reports/utils"
	"github.com/gofiber/template/html/v2"
)

var (
	//go:embed layout.html pages/*.html
	pages embed.FS

	//go:embed email/*.html email/*.txt
	Emails embed.FS
)

// NewEngine returns the page renderer. Pages are named after their path,
// e.g. "pages/reports", and rendered inside "layout".
func NewEngine(debug bool) *html.Engine {
	engine := html.NewFileSystem(http.FS(pages), ".html")
	engine.Debug(debug)
	engine.AddFuncMap(Funcs())

	return engine
}

func Funcs() map[string]any {
	return map[string]any{
		"fileSize":   utils.FormatFileSize,
		"fileKind":   utils.FileKind,
		"simpleDate": utils.FormatSimpleDate,
		"isoDate":    func(t time.Time) string { return t.Format(utils.DateLayout) },
		"preview":    Preview,
	}
}

// Preview shortens a text to at most n runes, on a word boundary when one is
// close enough.
func Preview(s string, n int) string {
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) <= n {
		return s
	}

	r := []rune(s)[:n]
	cut := string(r)

	if i := strings.LastIndexAny(cut, " \n\t"); i > n/2 {
		cut = cut[:i]
	}

	return strings.TrimRight(cut, " \n\t.,;:") + "…"
}
