package document_test

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/docparse/internal/domain/document"
	"github.com/kailas-cloud/docparse/internal/domain/document/documenttest"
)

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"  ", "null", " null\n"} {
		if _, err := document.Parse([]byte(in)); !errors.Is(err, document.ErrInvalidDocument) {
			t.Errorf("Parse(%q): expected ErrInvalidDocument, got %v", in, err)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := document.Parse([]byte(`{"texts": 5}`))
	if !errors.Is(err, document.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestItems_DocumentOrderAndLevels(t *testing.T) {
	b := documenttest.New("report")
	b.Title("Quarterly report")
	b.Paragraph("intro")
	b.List(false, "one", "two")
	b.Picture(documenttest.WithCaption("Figure 1"))
	b.Paragraph("outro")
	doc := b.Document(t)

	type seen struct {
		ref   string
		level int
	}
	var got []seen
	for it, level := range doc.Items() {
		got = append(got, seen{document.SelfRef(it), level})
	}

	want := []seen{
		{"#/texts/0", 1},
		{"#/texts/1", 1},
		{"#/texts/2", 2},
		{"#/texts/3", 2},
		{"#/pictures/0", 1},
		{"#/texts/5", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d items %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestItems_SkipsPictureChildren(t *testing.T) {
	b := documenttest.New("doc")
	b.Picture(documenttest.WithCaption("cap"))
	doc := b.Document(t)

	n := 0
	for it := range doc.Items() {
		if _, ok := it.(*document.TextItem); ok {
			t.Errorf("picture caption %s yielded as a standalone item", document.SelfRef(it))
		}
		n++
	}
	if n != 1 {
		t.Errorf("expected 1 item, got %d", n)
	}
}

func TestItems_SkipsOtherContentLayers(t *testing.T) {
	b := documenttest.New("doc")
	b.Picture(documenttest.InLayer(document.LayerFurniture))
	b.Paragraph("text")
	b.TableLayer(b.Table([][]string{{"h"}, {"v"}}, ""), document.LayerFurniture)
	b.Picture()
	b.PageHeader("Confidential")
	doc := b.Document(t)

	var refs []string
	for it := range doc.Items() {
		refs = append(refs, document.SelfRef(it))
	}
	want := []string{"#/texts/0", "#/pictures/1"}
	if len(refs) != len(want) || refs[0] != want[0] || refs[1] != want[1] {
		t.Errorf("got %v, want %v", refs, want)
	}
}

func TestItems_DescendsIntoOtherContentLayers(t *testing.T) {
	raw := `{
		"name": "layers",
		"body": {"self_ref": "#/body", "children": [{"$ref": "#/texts/0"}]},
		"texts": [
			{"self_ref": "#/texts/0", "label": "page_header", "content_layer": "furniture", "text": "hdr",
			 "children": [{"$ref": "#/texts/1"}]},
			{"self_ref": "#/texts/1", "label": "text", "content_layer": "body", "text": "inner", "children": []}
		]
	}`
	doc, err := document.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	var levels []int
	for it, level := range doc.Items() {
		got = append(got, document.SelfRef(it))
		levels = append(levels, level)
	}
	if len(got) != 1 || got[0] != "#/texts/1" || levels[0] != 2 {
		t.Errorf("got %v at levels %v, want [#/texts/1] at [2]", got, levels)
	}
}

func TestItems_IgnoresDanglingAndCyclicRefs(t *testing.T) {
	raw := `{
		"name": "cyclic",
		"body": {"self_ref": "#/body", "children": [{"$ref": "#/groups/0"}, {"$ref": "#/texts/9"}]},
		"groups": [{"self_ref": "#/groups/0", "label": "list", "children": [{"$ref": "#/groups/0"}, {"$ref": "#/texts/0"}, {"$ref": "#/body"}]}],
		"texts": [{"self_ref": "#/texts/0", "label": "text", "text": "only", "children": []}]
	}`
	doc, err := document.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var refs []string
	for it := range doc.Items() {
		refs = append(refs, document.SelfRef(it))
	}
	if len(refs) != 1 || refs[0] != "#/texts/0" {
		t.Errorf("got %v, want [#/texts/0]", refs)
	}
}

func TestItems_EarlyBreak(t *testing.T) {
	b := documenttest.New("doc")
	b.Paragraph("a")
	b.Paragraph("b")
	b.Paragraph("c")
	doc := b.Document(t)

	n := 0
	for range doc.Items() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2, got %d", n)
	}
}

func TestResolve(t *testing.T) {
	b := documenttest.New("doc")
	b.Paragraph("a")
	b.Table([][]string{{"h"}, {"v"}}, "")
	doc := b.Document(t)

	tests := []struct {
		ref  string
		want bool
	}{
		{"#/body", true},
		{"#/furniture", true},
		{"#/texts/0", true},
		{"#/tables/0", true},
		{"#/texts/7", false},
		{"#/pictures/0", false},
		{"#/texts/-1", false},
		{"#/texts/x", false},
		{"#/unknown/0", false},
		{"garbage", false},
	}
	for _, tc := range tests {
		_, ok := doc.Resolve(tc.ref)
		if ok != tc.want {
			t.Errorf("Resolve(%q) ok = %v, want %v", tc.ref, ok, tc.want)
		}
	}
}

func TestCaptionText(t *testing.T) {
	b := documenttest.New("doc")
	b.Picture(documenttest.WithCaption("Figure 1: "), documenttest.WithCaption("Revenue"))
	doc := b.Document(t)

	got := doc.CaptionText(doc.Pictures[0].Captions)
	if got != "Figure 1: Revenue" {
		t.Errorf("CaptionText = %q", got)
	}
	if doc.CaptionText(nil) != "" {
		t.Error("expected empty caption for no refs")
	}
	if doc.CaptionText([]document.Ref{{Ref: "#/texts/42"}}) != "" {
		t.Error("expected dangling caption refs to be skipped")
	}
}

func TestExportToDict_FreshCopy(t *testing.T) {
	b := documenttest.New("report")
	b.Paragraph("a")
	doc := b.Document(t)

	first, err := doc.ExportToDict()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first["name"] != "report" {
		t.Errorf("name = %v", first["name"])
	}
	first["picture_data"] = []any{}

	second, err := doc.ExportToDict()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := second["picture_data"]; ok {
		t.Error("mutation of one export leaked into the next")
	}
}

func TestExportToDict_PreservesLargeIntegers(t *testing.T) {
	doc := documenttest.New("report").Document(t)
	out, err := doc.ExportToDict()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	origin := out["origin"].(map[string]any)
	if got := origin["binary_hash"]; got.(interface{ String() string }).String() != "1234567890123456789" {
		t.Errorf("binary_hash = %v", got)
	}
}
