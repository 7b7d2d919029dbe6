// Package documenttest builds Docling document JSON for tests.
package documenttest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

type ref = map[string]string

type node map[string]any

// Builder appends items to the body of a document in call order.
type Builder struct {
	name     string
	texts    []node
	tables   []node
	pictures []node
	groups   []node
	body     []ref
}

// New starts a document named name.
func New(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) text(parent string, label document.Label, text string, extra node) string {
	self := fmt.Sprintf("#/texts/%d", len(b.texts))
	n := node{
		"self_ref":      self,
		"parent":        ref{"$ref": parent},
		"children":      []ref{},
		"content_layer": "body",
		"label":         string(label),
		"orig":          text,
		"text":          text,
	}
	for k, v := range extra {
		n[k] = v
	}
	b.texts = append(b.texts, n)
	return self
}

func (b *Builder) attach(self string) string {
	b.body = append(b.body, ref{"$ref": self})
	return self
}

// Title adds a document title.
func (b *Builder) Title(text string) string {
	return b.attach(b.text("#/body", document.LabelTitle, text, nil))
}

// Heading adds a section header at level.
func (b *Builder) Heading(text string, level int) string {
	return b.attach(b.text("#/body", document.LabelSectionHeader, text, node{"level": level}))
}

// Paragraph adds body text.
func (b *Builder) Paragraph(text string) string {
	return b.attach(b.text("#/body", document.LabelText, text, nil))
}

// Code adds a code block.
func (b *Builder) Code(text, lang string) string {
	return b.attach(b.text("#/body", document.LabelCode, text, node{"code_language": lang}))
}

// Formula adds a formula.
func (b *Builder) Formula(text string) string {
	return b.attach(b.text("#/body", document.LabelFormula, text, nil))
}

// PageHeader adds a page header in the furniture layer.
func (b *Builder) PageHeader(text string) string {
	self := b.text("#/body", document.LabelPageHeader, text, nil)
	b.texts[len(b.texts)-1]["content_layer"] = document.LayerFurniture
	return b.attach(self)
}

// List adds a list group with one item per entry.
func (b *Builder) List(enumerated bool, items ...string) string {
	self := fmt.Sprintf("#/groups/%d", len(b.groups))
	label := document.LabelList
	if enumerated {
		label = document.LabelOrderedList
	}
	children := make([]ref, 0, len(items))
	for _, it := range items {
		children = append(children, ref{"$ref": b.text(self, document.LabelListItem, it, node{"enumerated": enumerated, "marker": "-"})})
	}
	b.groups = append(b.groups, node{
		"self_ref":      self,
		"parent":        ref{"$ref": "#/body"},
		"children":      children,
		"content_layer": "body",
		"name":          "list",
		"label":         string(label),
	})
	return b.attach(self)
}

// PictureOption decorates a picture.
type PictureOption func(b *Builder, self string, n node)

// WithCaption attaches a caption text node to the picture.
func WithCaption(text string) PictureOption {
	return func(b *Builder, self string, n node) {
		c := b.text(self, document.LabelCaption, text, nil)
		n["captions"] = append(n["captions"].([]ref), ref{"$ref": c})
		n["children"] = append(n["children"].([]ref), ref{"$ref": c})
	}
}

// WithClassification adds a classification annotation with classes in rank order.
func WithClassification(classes ...string) PictureOption {
	return func(_ *Builder, _ string, n node) {
		predicted := make([]node, 0, len(classes))
		for i, c := range classes {
			predicted = append(predicted, node{"class_name": c, "confidence": 1.0 / float64(i+1)})
		}
		n["annotations"] = append(n["annotations"].([]node), node{
			"kind":              document.KindClassification,
			"provenance":        "DocumentPictureClassifier",
			"predicted_classes": predicted,
		})
	}
}

// WithDescription adds a description annotation.
func WithDescription(text string) PictureOption {
	return func(_ *Builder, _ string, n node) {
		n["annotations"] = append(n["annotations"].([]node), node{
			"kind":       document.KindDescription,
			"provenance": "smolvlm",
			"text":       text,
		})
	}
}

// WithAnnotation adds an arbitrary annotation object.
func WithAnnotation(a map[string]any) PictureOption {
	return func(_ *Builder, _ string, n node) {
		n["annotations"] = append(n["annotations"].([]node), node(a))
	}
}

// InLayer moves the picture to another content layer while keeping it a
// child of the body.
func InLayer(layer string) PictureOption {
	return func(_ *Builder, _ string, n node) {
		n["content_layer"] = layer
	}
}

// Picture adds a picture to the body.
func (b *Builder) Picture(opts ...PictureOption) string {
	self := fmt.Sprintf("#/pictures/%d", len(b.pictures))
	n := node{
		"self_ref":      self,
		"parent":        ref{"$ref": "#/body"},
		"children":      []ref{},
		"content_layer": "body",
		"label":         string(document.LabelPicture),
		"captions":      []ref{},
		"footnotes":     []ref{},
		"references":    []ref{},
		"annotations":   []node{},
	}
	b.pictures = append(b.pictures, n)
	for _, o := range opts {
		o(b, self, n)
	}
	return b.attach(self)
}

// Table adds a table whose first row is the column header.
func (b *Builder) Table(rows [][]string, caption string) string {
	self := fmt.Sprintf("#/tables/%d", len(b.tables))
	cols := 0
	var cells []node
	grid := make([][]node, 0, len(rows))
	for r, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
		line := make([]node, 0, len(row))
		for c, v := range row {
			cell := node{
				"text":                 v,
				"row_span":             1,
				"col_span":             1,
				"start_row_offset_idx": r,
				"end_row_offset_idx":   r + 1,
				"start_col_offset_idx": c,
				"end_col_offset_idx":   c + 1,
				"column_header":        r == 0,
			}
			cells = append(cells, cell)
			line = append(line, cell)
		}
		grid = append(grid, line)
	}
	n := node{
		"self_ref":      self,
		"parent":        ref{"$ref": "#/body"},
		"children":      []ref{},
		"content_layer": "body",
		"label":         string(document.LabelTable),
		"captions":      []ref{},
		"footnotes":     []ref{},
		"data": node{
			"num_rows":    len(rows),
			"num_cols":    cols,
			"table_cells": cells,
			"grid":        grid,
		},
	}
	b.tables = append(b.tables, n)
	if caption != "" {
		c := b.text(self, document.LabelCaption, caption, nil)
		n["captions"] = []ref{{"$ref": c}}
		n["children"] = []ref{{"$ref": c}}
	}
	return b.attach(self)
}

// TableLayer moves the table with ref self to another content layer.
func (b *Builder) TableLayer(self, layer string) {
	var idx int
	if _, err := fmt.Sscanf(self, "#/tables/%d", &idx); err != nil || idx >= len(b.tables) {
		panic(fmt.Sprintf("documenttest: %q is not a table", self))
	}
	b.tables[idx]["content_layer"] = layer
}

// JSON encodes the document.
func (b *Builder) JSON() []byte {
	doc := node{
		"schema_name": "DoclingDocument",
		"version":     "1.3.0",
		"name":        b.name,
		"origin": node{
			"mimetype":    "application/pdf",
			"binary_hash": 1234567890123456789,
			"filename":    b.name + ".pdf",
		},
		"furniture": node{
			"self_ref": "#/furniture", "children": []ref{}, "content_layer": "furniture",
			"name": "_root_", "label": "unspecified",
		},
		"body": node{
			"self_ref": "#/body", "children": b.body, "content_layer": "body",
			"name": "_root_", "label": "unspecified",
		},
		"groups":          nonNil(b.groups),
		"texts":           nonNil(b.texts),
		"tables":          nonNil(b.tables),
		"pictures":        nonNil(b.pictures),
		"key_value_items": []node{},
		"form_items":      []node{},
		"pages":           node{},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("documenttest: marshal: %v", err))
	}
	return data
}

// Document parses the built JSON, failing t on error.
func (b *Builder) Document(t testing.TB) *document.Document {
	t.Helper()
	d, err := document.Parse(b.JSON())
	if err != nil {
		t.Fatalf("parse built document: %v", err)
	}
	return d
}

func nonNil(ns []node) []node {
	if ns == nil {
		return []node{}
	}
	return ns
}
