package document

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// DefaultProcessingMethod is shown in the footer when the backend did not name one
const DefaultProcessingMethod = "OCR Engine"

var htmlTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
        h1 { color: #333; text-align: center; border-bottom: 2px solid #333; padding-bottom: 10px; }
        .content { margin-top: 30px; text-align: justify; }
        .footer { margin-top: 50px; text-align: center; color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="content">
        {{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}
    </div>
    <div class="footer">
        <p>Generated by OCR Scanner Word - {{.Date}}</p>
        <p>Processed with {{.ProcessingMethod}}</p>
    </div>
</body>
</html>
`))

// HTMLInput is the data rendered into a generated document
type HTMLInput struct {
	Title            string
	Text             string
	ProcessingMethod string
	GeneratedAt      time.Time
}

// RenderHTML builds the standalone HTML document for extracted text.
// Line breaks in Text become <br>; all text is HTML-escaped.
func RenderHTML(in HTMLInput) ([]byte, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "OCR Document"
	}

	method := strings.TrimSpace(in.ProcessingMethod)
	if method == "" {
		method = DefaultProcessingMethod
	}

	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	text := strings.ReplaceAll(in.Text, "\r\n", "\n")

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Title            string
		Lines            []string
		Date             string
		ProcessingMethod string
	}{
		Title:            title,
		Lines:            strings.Split(text, "\n"),
		Date:             generated.Format("2006-01-02"),
		ProcessingMethod: method,
	})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	return buf.Bytes(), nil
}
