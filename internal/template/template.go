package template

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	humanize "github.com/dustin/go-humanize"
	blackfriday "gopkg.in/russross/blackfriday.v2"
)

//go:embed emails/*.md
var emailFS embed.FS

const (
	EmailOTP                 = "otp.md"
	EmailApplicationReceived = "application_received.md"
	EmailNewApplicant        = "new_applicant.md"
)

// Template renders transactional email bodies written in markdown
type Template struct {
	templates *template.Template
}

func NewTemplate() *Template {
	funcMap := template.FuncMap{
		"humantime": humanize.Time,
		"humannumber": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"truncateName": func(s string) string {
			parts := strings.Split(s, " ")
			return parts[0]
		},
	}
	return &Template{
		templates: template.Must(template.New("emails").Funcs(funcMap).ParseFS(emailFS, "emails/*.md")),
	}
}

// RenderEmail executes the named template and returns it as html
func (t *Template) RenderEmail(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return string(MarkdownToHTML(buf.Bytes())), nil
}

func MarkdownToHTML(s []byte) []byte {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink |
			blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks |
			blackfriday.HrefTargetBlank,
	})
	return blackfriday.Run(s, blackfriday.WithRenderer(renderer))
}
