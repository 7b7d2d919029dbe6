package render

import (
	"strings"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

// text renders doc without any markup: headings, list markers, fences and
// image placeholders are dropped, tables become tab-separated rows.
func text(doc *document.Document) string {
	var w blockWriter
	visit(doc, func(it document.Item) {
		switch v := it.(type) {
		case *document.TextItem:
			w.add(v.Text, v.Label == document.LabelListItem)
		case *document.TableItem:
			w.add(joinNonEmpty(doc.CaptionText(v.Captions), textTable(v.Data)), false)
		case *document.PictureItem:
			w.add(doc.CaptionText(v.Captions), false)
		}
	})
	return w.String()
}

func textTable(d document.TableData) string {
	rows := tableGrid(d)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join(r, "\t"))
	}
	return strings.Join(lines, "\n")
}
