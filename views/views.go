// Package views holds the embedded page templates and the helpers they use.
package views

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/models"
	qrcode "github.com/skip2/go-qrcode"
)

//go:embed templates/*.html
var templateFS embed.FS

// Load parses every embedded template with the shared FuncMap.
func Load() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("views: parse templates: %w", err)
	}
	return tmpl, nil
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":       models.FormatCurrency,
		"date":        func(v any) string { return formatTime(v, models.FormatDate) },
		"datetime":    func(v any) string { return formatTime(v, models.FormatDateTime) },
		"truncate":    func(n int, s string) string { return models.Truncate(s, n) },
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"plural":      plural,
		"qr":          QRDataURI,
		"firstLetter": firstLetter,
		"default": func(defaultVal, val any) any {
			switch v := val.(type) {
			case nil:
				return defaultVal
			case string:
				if v == "" {
					return defaultVal
				}
			}
			return val
		},
	}
}

func formatTime(v any, format func(time.Time) string) string {
	switch t := v.(type) {
	case time.Time:
		return format(t)
	case *time.Time:
		if t == nil {
			return ""
		}
		return format(*t)
	}
	return ""
}

// plural picks the singular or plural word for n, e.g. "1 month", "3 months".
func plural(n int, singular, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func firstLetter(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(s)[0]))
}

// QRDataURI renders content as a PNG data URI. An empty string comes back for
// empty content or on encoder failure; templates hide the image then.
func QRDataURI(content string) template.URL {
	if content == "" {
		return ""
	}
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
