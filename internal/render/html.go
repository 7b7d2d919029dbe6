package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

func (r *Renderer) html(doc *document.Document) (string, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown(doc, true)), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n<title>")
	out.WriteString(html.EscapeString(doc.Name))
	out.WriteString("</title>\n</head>\n<body>\n")
	out.Write(r.policy.SanitizeBytes(body.Bytes()))
	out.WriteString("</body>\n</html>\n")
	return out.String(), nil
}
