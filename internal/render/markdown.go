package render

import (
	"html"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

const imagePlaceholder = "<!-- image -->"

// visit calls fn for every body item that produces output: page headers
// and footers are dropped, and captions owned by a table or picture are left
// to their owner.
func visit(doc *document.Document, fn func(it document.Item)) {
	owned := make(map[string]struct{})
	for i := range doc.Tables {
		for _, c := range doc.Tables[i].Captions {
			owned[c.Ref] = struct{}{}
		}
	}
	for i := range doc.Pictures {
		for _, c := range doc.Pictures[i].Captions {
			owned[c.Ref] = struct{}{}
		}
	}

	for it := range doc.Items() {
		if t, ok := it.(*document.TextItem); ok {
			if t.Label == document.LabelPageHeader || t.Label == document.LabelPageFooter {
				continue
			}
			if _, isOwned := owned[t.SelfRef]; isOwned {
				continue
			}
		}
		fn(it)
	}
}

// listDepth counts the list groups enclosing t.
func listDepth(doc *document.Document, t *document.TextItem) int {
	depth := 0
	parent := t.Parent
	for hops := 0; parent != nil && hops < 64; hops++ {
		it, ok := doc.Resolve(parent.Ref)
		if !ok {
			break
		}
		g, isGroup := it.(*document.GroupItem)
		if !isGroup {
			break
		}
		if g.Label == document.LabelList || g.Label == document.LabelOrderedList {
			depth++
		}
		parent = g.Parent
	}
	return max(depth, 1)
}

// blockWriter joins blocks with blank lines, keeping list items tight.
type blockWriter struct {
	b        strings.Builder
	lastList bool
}

func (w *blockWriter) add(s string, isList bool) {
	if s == "" {
		return
	}
	if w.b.Len() > 0 {
		if isList && w.lastList {
			w.b.WriteString("\n")
		} else {
			w.b.WriteString("\n\n")
		}
	}
	w.b.WriteString(s)
	w.lastList = isList
}

func (w *blockWriter) String() string { return w.b.String() }

// markdown renders doc as Markdown. With figures set, pictures become
// <figure> blocks carrying the escaped caption (used for HTML output).
func markdown(doc *document.Document, figures bool) string {
	var w blockWriter
	counters := make(map[string]int)

	visit(doc, func(it document.Item) {
		switch v := it.(type) {
		case *document.TextItem:
			if v.Label == document.LabelListItem {
				w.add(listItem(doc, v, counters), true)
				return
			}
			w.add(textBlock(v), false)
		case *document.TableItem:
			w.add(joinNonEmpty(doc.CaptionText(v.Captions), markdownTable(v.Data)), false)
		case *document.PictureItem:
			caption := doc.CaptionText(v.Captions)
			if figures {
				fig := "<figure>"
				if caption != "" {
					fig += "<figcaption>" + html.EscapeString(caption) + "</figcaption>"
				}
				w.add(fig+"</figure>", false)
				return
			}
			w.add(joinNonEmpty(imagePlaceholder, caption), false)
		}
	})
	return w.String()
}

func textBlock(t *document.TextItem) string {
	switch t.Label {
	case document.LabelTitle:
		return "# " + t.Text
	case document.LabelSectionHeader:
		return strings.Repeat("#", min(max(t.Level, 1)+1, 6)) + " " + t.Text
	case document.LabelCode:
		return "```" + t.CodeLanguage + "\n" + t.Text + "\n```"
	case document.LabelFormula:
		if t.Text == "" {
			return ""
		}
		return "$$" + t.Text + "$$"
	default:
		return t.Text
	}
}

func listItem(doc *document.Document, t *document.TextItem, counters map[string]int) string {
	indent := strings.Repeat("    ", listDepth(doc, t)-1)
	marker := "- "
	if t.Enumerated {
		key := ""
		if t.Parent != nil {
			key = t.Parent.Ref
		}
		counters[key]++
		marker = strconv.Itoa(counters[key]) + ". "
	}
	return indent + marker + t.Text
}

// tableGrid returns the cell texts row by row, rebuilding the grid from
// cell offsets when the pipeline did not send one.
func tableGrid(d document.TableData) [][]string {
	if len(d.Grid) > 0 {
		rows := make([][]string, len(d.Grid))
		for i, row := range d.Grid {
			rows[i] = make([]string, len(row))
			for j, c := range row {
				rows[i][j] = c.Text
			}
		}
		return rows
	}
	if d.NumRows <= 0 || d.NumCols <= 0 {
		return nil
	}
	rows := make([][]string, d.NumRows)
	for i := range rows {
		rows[i] = make([]string, d.NumCols)
	}
	for _, c := range d.Cells {
		for r := max(c.StartRow, 0); r < min(max(c.EndRow, c.StartRow+1), d.NumRows); r++ {
			for col := max(c.StartCol, 0); col < min(max(c.EndCol, c.StartCol+1), d.NumCols); col++ {
				rows[r][col] = c.Text
			}
		}
	}
	return rows
}

func markdownTable(d document.TableData) string {
	rows := tableGrid(d)
	if len(rows) == 0 {
		return ""
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}

	var b strings.Builder
	writeRow := func(r []string) {
		b.WriteString("|")
		for i := range cols {
			cell := ""
			if i < len(r) {
				cell = escapeCell(r[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])
	b.WriteString("|")
	for range cols {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
