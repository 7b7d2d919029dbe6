// Package document decodes the Docling document tree returned by the
// conversion pipeline. The model is read-only: nothing in this repository
// mutates a Document after Parse.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Label classifies a node of the document tree.
type Label string

// Labels emitted by the pipeline that the renderer and aggregator care about.
const (
	LabelTitle         Label = "title"
	LabelSectionHeader Label = "section_header"
	LabelParagraph     Label = "paragraph"
	LabelText          Label = "text"
	LabelListItem      Label = "list_item"
	LabelCode          Label = "code"
	LabelFormula       Label = "formula"
	LabelCaption       Label = "caption"
	LabelFootnote      Label = "footnote"
	LabelPageHeader    Label = "page_header"
	LabelPageFooter    Label = "page_footer"
	LabelTable         Label = "table"
	LabelPicture       Label = "picture"
	LabelChart         Label = "chart"
	LabelList          Label = "list"
	LabelOrderedList   Label = "ordered_list"
	LabelUnspecified   Label = "unspecified"
)

// Content layers of tree items.
const (
	LayerBody      = "body"
	LayerFurniture = "furniture"
)

// ErrInvalidDocument signals JSON that is not a Docling document.
var ErrInvalidDocument = errors.New("invalid document")

// Ref is a JSON pointer into the document ("#/texts/3").
type Ref struct {
	Ref string `json:"$ref"`
}

// Node holds the fields shared by every tree item.
type Node struct {
	SelfRef      string `json:"self_ref"`
	Parent       *Ref   `json:"parent,omitempty"`
	Children     []Ref  `json:"children"`
	ContentLayer string `json:"content_layer,omitempty"`
	Label        Label  `json:"label"`
}

// Item is any node reachable from the document body.
type Item interface {
	node() *Node
}

// SelfRef returns the stable identifier of it.
func SelfRef(it Item) string { return it.node().SelfRef }

// LabelOf returns the label of it.
func LabelOf(it Item) Label { return it.node().Label }

// GroupItem is a container (body, list, section, ...).
type GroupItem struct {
	Node
	Name string `json:"name"`
}

func (g *GroupItem) node() *Node { return &g.Node }

// TextItem covers titles, headers, paragraphs, list items, code and formulas.
type TextItem struct {
	Node
	Orig         string `json:"orig"`
	Text         string `json:"text"`
	Level        int    `json:"level,omitempty"`
	Enumerated   bool   `json:"enumerated,omitempty"`
	Marker       string `json:"marker,omitempty"`
	CodeLanguage string `json:"code_language,omitempty"`
}

func (t *TextItem) node() *Node { return &t.Node }

// TableCell is one cell of a table grid.
type TableCell struct {
	Text         string `json:"text"`
	RowSpan      int    `json:"row_span,omitempty"`
	ColSpan      int    `json:"col_span,omitempty"`
	StartRow     int    `json:"start_row_offset_idx"`
	EndRow       int    `json:"end_row_offset_idx"`
	StartCol     int    `json:"start_col_offset_idx"`
	EndCol       int    `json:"end_col_offset_idx"`
	ColumnHeader bool   `json:"column_header,omitempty"`
	RowHeader    bool   `json:"row_header,omitempty"`
}

// TableData holds the table structure recognized by the pipeline.
type TableData struct {
	NumRows int           `json:"num_rows"`
	NumCols int           `json:"num_cols"`
	Cells   []TableCell   `json:"table_cells"`
	Grid    [][]TableCell `json:"grid,omitempty"`
}

// TableItem is a recognized table.
type TableItem struct {
	Node
	Captions  []Ref     `json:"captions"`
	Footnotes []Ref     `json:"footnotes"`
	Data      TableData `json:"data"`
}

func (t *TableItem) node() *Node { return &t.Node }

// PictureItem is an embedded picture with its enrichment annotations.
type PictureItem struct {
	Node
	Captions    []Ref       `json:"captions"`
	Footnotes   []Ref       `json:"footnotes"`
	Annotations Annotations `json:"annotations"`
}

func (p *PictureItem) node() *Node { return &p.Node }

// Origin describes the converted source.
type Origin struct {
	MimeType string `json:"mimetype"`
	Filename string `json:"filename"`
}

// Document is the converted document tree.
type Document struct {
	Name      string        `json:"name"`
	Origin    *Origin       `json:"origin,omitempty"`
	Furniture GroupItem     `json:"furniture"`
	Body      GroupItem     `json:"body"`
	Groups    []GroupItem   `json:"groups"`
	Texts     []TextItem    `json:"texts"`
	Tables    []TableItem   `json:"tables"`
	Pictures  []PictureItem `json:"pictures"`

	raw []byte
}

// Parse decodes a Docling document. The raw bytes are kept for ExportToDict.
func Parse(data []byte) (*Document, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("empty document: %w", ErrInvalidDocument)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w: %w", ErrInvalidDocument, err)
	}
	if d.Body.SelfRef == "" {
		d.Body.SelfRef = "#/body"
	}
	d.raw = bytes.Clone(data)
	return &d, nil
}

// Resolve follows a JSON pointer to the item it names.
func (d *Document) Resolve(ref string) (Item, bool) {
	switch ref {
	case "#/body":
		return &d.Body, true
	case "#/furniture":
		return &d.Furniture, true
	}

	coll, idxStr, ok := strings.Cut(strings.TrimPrefix(ref, "#/"), "/")
	if !ok {
		return nil, false
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return nil, false
	}

	switch coll {
	case "texts":
		if idx < len(d.Texts) {
			return &d.Texts[idx], true
		}
	case "tables":
		if idx < len(d.Tables) {
			return &d.Tables[idx], true
		}
	case "pictures":
		if idx < len(d.Pictures) {
			return &d.Pictures[idx], true
		}
	case "groups":
		if idx < len(d.Groups) {
			return &d.Groups[idx], true
		}
	}
	return nil, false
}

// Items walks the body depth-first in document order, yielding every
// non-group item of the body content layer with its depth (top-level items
// have level 1). Groups and items of other layers are descended into but not
// yielded, and picture children are not visited. Dangling and repeated
// references are skipped.
func (d *Document) Items() iter.Seq2[Item, int] {
	return func(yield func(Item, int) bool) {
		seen := map[string]struct{}{d.Body.SelfRef: {}}
		d.walk(&d.Body, 0, seen, yield)
	}
}

func (d *Document) walk(parent Item, level int, seen map[string]struct{}, yield func(Item, int) bool) bool {
	for _, child := range parent.node().Children {
		if _, dup := seen[child.Ref]; dup {
			continue
		}
		it, ok := d.Resolve(child.Ref)
		if !ok {
			continue
		}
		seen[child.Ref] = struct{}{}

		if _, isGroup := it.(*GroupItem); !isGroup && inBody(it) {
			if !yield(it, level+1) {
				return false
			}
		}
		if _, isPicture := it.(*PictureItem); isPicture {
			continue
		}
		if !d.walk(it, level+1, seen, yield) {
			return false
		}
	}
	return true
}

// inBody reports whether it belongs to the body layer. Items without a layer
// predate content layers and count as body.
func inBody(it Item) bool {
	layer := it.node().ContentLayer
	return layer == "" || layer == LayerBody
}

// CaptionText concatenates the text of the caption nodes referenced by refs.
func (d *Document) CaptionText(refs []Ref) string {
	var b strings.Builder
	for _, r := range refs {
		it, ok := d.Resolve(r.Ref)
		if !ok {
			continue
		}
		if t, ok := it.(*TextItem); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ExportToDict returns the full structural export as a fresh mapping.
// Callers may mutate the returned map.
func (d *Document) ExportToDict() (map[string]any, error) {
	out := make(map[string]any)
	if len(d.raw) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(d.raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("export document: %w", err)
	}
	return out, nil
}
