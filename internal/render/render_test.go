package render

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/docparse/internal/domain/document"
	"github.com/kailas-cloud/docparse/internal/domain/document/documenttest"
)

func sampleDoc(t *testing.T) *document.Document {
	t.Helper()
	b := documenttest.New("report")
	b.Title("Report")
	b.Heading("Sales", 1)
	b.Paragraph("Intro text.")
	b.List(false, "one", "two")
	b.Table([][]string{{"Region", "Total"}, {"EU", "10"}}, "Table 1")
	b.Picture(documenttest.WithCaption("Figure 1"), documenttest.WithClassification("chart"))
	b.Code("x := 1", "go")
	b.Formula("E=mc^2")
	b.PageHeader("Confidential")
	return b.Document(t)
}

func TestRender_Markdown(t *testing.T) {
	got, err := New().Render(sampleDoc(t), FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "# Report\n\n" +
		"## Sales\n\n" +
		"Intro text.\n\n" +
		"- one\n- two\n\n" +
		"Table 1\n\n" +
		"| Region | Total |\n|---|---|\n| EU | 10 |\n\n" +
		"<!-- image -->\n\nFigure 1\n\n" +
		"```go\nx := 1\n```\n\n" +
		"$$E=mc^2$$"
	if got != want {
		t.Errorf("markdown mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_SkipsFurnitureLayer(t *testing.T) {
	b := documenttest.New("doc")
	b.Picture(documenttest.InLayer(document.LayerFurniture))
	b.TableLayer(b.Table([][]string{{"Logo"}, {"x"}}, ""), document.LayerFurniture)
	b.Paragraph("Body.")
	got, err := New().Render(b.Document(t), FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Body." {
		t.Errorf("got %q, want only the body paragraph", got)
	}
}

func TestRender_Text(t *testing.T) {
	got, err := New().Render(sampleDoc(t), FormatText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Report\n\nSales\n\nIntro text.\n\none\ntwo\n\n" +
		"Table 1\n\nRegion\tTotal\nEU\t10\n\n" +
		"Figure 1\n\nx := 1\n\nE=mc^2"
	if got != want {
		t.Errorf("text mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_HTML(t *testing.T) {
	got, err := New().Render(sampleDoc(t), FormatHTML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>report</title>",
		"<h1>Report</h1>",
		"<h2>Sales</h2>",
		"<li>one</li>",
		"<th>Region</th>",
		"<td>EU</td>",
		"<figcaption>Figure 1</figcaption>",
		"x := 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("html missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "Confidential") {
		t.Error("page header leaked into html")
	}
}

func TestRender_HTMLSanitizesDocumentText(t *testing.T) {
	b := documenttest.New("x<y")
	b.Paragraph(`<script>alert(1)</script>`)
	b.Paragraph(`<a href="javascript:alert(1)" onclick="x()">link</a> safe`)
	b.Picture(documenttest.WithCaption(`<img src=x onerror=alert(1)>`))

	got, err := New().Render(b.Document(t), FormatHTML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"<script", "javascript:", "onclick", "<img"} {
		if strings.Contains(got, bad) {
			t.Errorf("html contains %q\n%s", bad, got)
		}
	}
	if !strings.Contains(got, "<title>x&lt;y</title>") {
		t.Errorf("title not escaped\n%s", got)
	}
	if !strings.Contains(got, "&lt;img src=x") {
		t.Errorf("caption not escaped\n%s", got)
	}
	if !strings.Contains(got, "safe") {
		t.Errorf("lost surrounding text\n%s", got)
	}
}

func TestRender_Idempotent(t *testing.T) {
	r := New()
	doc := sampleDoc(t)
	for _, f := range []Format{FormatMarkdown, FormatText, FormatHTML} {
		first, err := r.Render(doc, f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		second, err := r.Render(doc, f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if first != second {
			t.Errorf("%s: output differs between calls", f)
		}
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if _, err := New().Render(sampleDoc(t), Format("pdf")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRender_OrderedAndNestedHeadings(t *testing.T) {
	b := documenttest.New("doc")
	b.Heading("Deep", 9)
	b.List(true, "a", "b", "c")
	got, err := New().Render(b.Document(t), FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "###### Deep\n\n1. a\n2. b\n3. c"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_EmptyDocument(t *testing.T) {
	doc := documenttest.New("empty").Document(t)
	for _, f := range []Format{FormatMarkdown, FormatText} {
		got, err := New().Render(doc, f)
		if err != nil || got != "" {
			t.Errorf("%s: got %q, %v", f, got, err)
		}
	}
}

func TestMarkdownTable_FromCells(t *testing.T) {
	d := document.TableData{
		NumRows: 2,
		NumCols: 2,
		Cells: []document.TableCell{
			{Text: "merged", StartRow: 0, EndRow: 1, StartCol: 0, EndCol: 2},
			{Text: "a|b", StartRow: 1, EndRow: 2, StartCol: 0, EndCol: 1},
			{Text: "line\nbreak", StartRow: 1, EndRow: 2, StartCol: 1, EndCol: 2},
		},
	}
	got := markdownTable(d)
	want := "| merged | merged |\n|---|---|\n| a\\|b | line break |"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarkdownTable_Empty(t *testing.T) {
	if got := markdownTable(document.TableData{}); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"TEXT", FormatText, false},
		{" html ", FormatHTML, false},
		{"docx", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}
