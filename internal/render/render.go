// Package render builds the notification emails. Every function here is
// pure: domain objects in, a subject line and a complete HTML document out.
// No I/O, no randomness. All user-supplied text is HTML-escaped before
// interpolation and long free-text fields are truncated.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const (
	// brandName appears in the header and footer of every email.
	brandName = "Planora"

	// noDueDate is rendered when a task has no due date set.
	noDueDate = "Sin fecha límite"

	// Truncation caps for free-text fields.
	maxDescriptionLen = 300
	maxCommentLen     = 200
	maxCharterLen     = 200
)

// spanishMonths indexes time.Month values (1-based) to Spanish names.
var spanishMonths = [...]string{
	"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// esc escapes user-supplied text for HTML interpolation. Mandatory for
// every interpolated user string; ampersand, angle brackets and both quote
// characters are covered.
func esc(s string) string {
	return html.EscapeString(s)
}

// truncate shortens a free-text field to max characters, appending an
// ellipsis when anything was cut. Counts runes, not bytes, so accented
// text is not split mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// FormatDueDate renders an epoch-milliseconds timestamp as a long-form
// Spanish date. A nil timestamp yields the fixed "no date set" string; a
// timestamp outside any sane range falls back to Go's default rendering
// instead of failing.
func FormatDueDate(ms *int64) string {
	if ms == nil {
		return noDueDate
	}
	t := time.UnixMilli(*ms).UTC()
	year := t.Year()
	if year < 1 || year > 9999 {
		return t.String()
	}
	return fmt.Sprintf("%d de %s de %d, %02d:%02d",
		t.Day(), spanishMonths[t.Month()], year, t.Hour(), t.Minute())
}

// layout wraps a content fragment in the shared outer template: header with
// logo and title, content region, footer with copyright line and automated
// message disclaimer.
func layout(title, content string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="es">` + "\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString("<title>" + esc(title) + "</title>\n")
	b.WriteString("</head>\n")
	b.WriteString(`<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">` + "\n")
	b.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0">` + "\n")
	b.WriteString(`<tr><td align="center" style="padding:24px 12px;">` + "\n")
	b.WriteString(`<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">` + "\n")

	// Header
	b.WriteString(`<tr><td style="background-color:#1a3c6e;padding:20px 32px;">` + "\n")
	b.WriteString(`<span style="font-size:22px;font-weight:bold;color:#ffffff;">&#9635; ` + brandName + `</span>` + "\n")
	b.WriteString(`<div style="font-size:14px;color:#c9d6e8;margin-top:4px;">` + esc(title) + `</div>` + "\n")
	b.WriteString("</td></tr>\n")

	// Content region
	b.WriteString(`<tr><td style="padding:28px 32px;color:#172b4d;font-size:14px;line-height:1.6;">` + "\n")
	b.WriteString(content)
	b.WriteString("\n</td></tr>\n")

	// Footer
	b.WriteString(`<tr><td style="background-color:#f4f5f7;padding:16px 32px;font-size:12px;color:#6b778c;">` + "\n")
	b.WriteString(fmt.Sprintf("&copy; %d %s. Todos los derechos reservados.<br>\n", time.Now().Year(), brandName))
	b.WriteString("Este es un mensaje automático, por favor no responda a este correo.\n")
	b.WriteString("</td></tr>\n")

	b.WriteString("</table>\n</td></tr>\n</table>\n</body>\n</html>\n")
	return b.String()
}

// field renders a label/value row inside a content fragment. The value must
// already be escaped by the caller.
func field(label, escapedValue string) string {
	return fmt.Sprintf(`<p style="margin:6px 0;"><strong>%s:</strong> %s</p>`+"\n", label, escapedValue)
}

// tagPills renders a tag list as inline pills. Tag values are user text and
// are escaped here.
func tagPills(tags []string) string {
	if len(tags) == 0 {
		return `<em>Sin etiquetas</em>`
	}
	var b strings.Builder
	for _, tag := range tags {
		b.WriteString(`<span style="display:inline-block;background-color:#e9f2ff;color:#1a3c6e;border-radius:10px;padding:2px 10px;margin:2px;font-size:12px;">`)
		b.WriteString(esc(tag))
		b.WriteString("</span> ")
	}
	return b.String()
}
