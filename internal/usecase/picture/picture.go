// Package picture aggregates per-picture enrichment annotations into stable records.
package picture

import (
	"encoding/json"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

// Annotation types as they appear in picture_data.
const (
	TypeClassification = "classification"
	TypeDescription    = "description"
)

// Annotation is either a classification label or a description text.
type Annotation struct {
	Type           string
	PredictedClass string
	Text           string
}

// MarshalJSON emits only the field belonging to the variant.
func (a Annotation) MarshalJSON() ([]byte, error) {
	if a.Type == TypeClassification {
		return json.Marshal(struct {
			Type           string `json:"type"`
			PredictedClass string `json:"predicted_class"`
		}{a.Type, a.PredictedClass})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{a.Type, a.Text})
}

// Record summarizes one picture node.
type Record struct {
	SelfRef     string       `json:"self_ref"`
	CaptionText string       `json:"caption_text"`
	Annotations []Annotation `json:"annotations"`
}

// Extract walks doc in document order and returns one record per picture.
// Pictures without annotations still get a record with an empty list.
// Classifications contribute only the pipeline's top-ranked class;
// descriptions contribute their text verbatim; other kinds are ignored.
func Extract(doc *document.Document) []Record {
	records := make([]Record, 0, len(doc.Pictures))
	for it := range doc.Items() {
		pic, ok := it.(*document.PictureItem)
		if !ok {
			continue
		}
		records = append(records, Record{
			SelfRef:     pic.SelfRef,
			CaptionText: doc.CaptionText(pic.Captions),
			Annotations: annotations(pic.Annotations),
		})
	}
	return records
}

func annotations(in document.Annotations) []Annotation {
	out := make([]Annotation, 0, len(in))
	for _, a := range in {
		switch v := a.(type) {
		case document.Classification:
			if top, ok := v.TopClass(); ok {
				out = append(out, Annotation{Type: TypeClassification, PredictedClass: top})
			}
		case document.Description:
			out = append(out, Annotation{Type: TypeDescription, Text: v.Text})
		}
	}
	return out
}
