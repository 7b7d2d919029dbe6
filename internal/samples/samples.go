// Package samples generates tiny documents of every supported input format.
// They are fed through the engine at startup so its models are loaded
// before the first real request.
package samples

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
)

// For returns a filename and content for format.
func For(format conversion.Format) (string, []byte, error) {
	switch format {
	case conversion.FormatPDF:
		return "warmup.pdf", PDF(1), nil
	case conversion.FormatDOCX:
		data, err := DOCX()
		return "warmup.docx", data, err
	case conversion.FormatHTML:
		return "warmup.html", []byte(htmlSample), nil
	case conversion.FormatMarkdown:
		return "warmup.md", []byte(markdownSample), nil
	case conversion.FormatCSV:
		return "warmup.csv", []byte(csvSample), nil
	case conversion.FormatAsciiDoc:
		return "warmup.adoc", []byte(asciidocSample), nil
	case conversion.FormatImage:
		data, err := PNG()
		return "warmup.png", data, err
	default:
		return "", nil, fmt.Errorf("no sample for format %q", format)
	}
}

const (
	htmlSample = "<!DOCTYPE html><html><head><title>Warm-up</title></head>" +
		"<body><h1>Warm-up</h1><p>Sample paragraph.</p></body></html>\n"
	markdownSample = "# Warm-up\n\nSample paragraph.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	csvSample      = "a,b\n1,2\n"
	asciidocSample = "= Warm-up\n\nSample paragraph.\n"
)

// PDF builds a minimal valid PDF with the given number of pages, each
// carrying one line of Helvetica text.
func PDF(pages int) []byte {
	pages = max(pages, 1)

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i := range pages {
		content := fmt.Sprintf("BT /F1 18 Tf 72 720 Td (Warm-up page %d) Tj ET", i+1)
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// PNG renders a small white image with a dark bar so layout models have
// something to detect.
func PNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := range 32 {
		for x := range 64 {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if y >= 12 && y < 20 && x >= 8 && x < 56 {
				c = color.RGBA{A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var docxParts = []struct{ name, body string }{
	{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ` +
		`ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`},
	{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" ` +
		`Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" ` +
		`Target="word/document.xml"/></Relationships>`},
	{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Warm-up</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Sample paragraph.</w:t></w:r></w:p>` +
		`</w:body></w:document>`},
}

// DOCX builds a minimal Word document with two paragraphs.
func DOCX() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range docxParts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return buf.Bytes(), nil
}
