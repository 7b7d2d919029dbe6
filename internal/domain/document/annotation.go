package document

import (
	"encoding/json"
	"fmt"
)

// Annotation kinds the pipeline attaches to pictures.
const (
	KindClassification = "classification"
	KindDescription    = "description"
)

// Annotation is one enrichment result attached to a picture.
type Annotation interface {
	Kind() string
}

// PredictedClass is a classifier label with its confidence.
type PredictedClass struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// Classification lists predicted classes ranked by the pipeline, best first.
type Classification struct {
	Provenance       string           `json:"provenance"`
	PredictedClasses []PredictedClass `json:"predicted_classes"`
}

// Kind implements Annotation.
func (Classification) Kind() string { return KindClassification }

// TopClass returns the first predicted class as ranked by the pipeline.
func (c Classification) TopClass() (string, bool) {
	if len(c.PredictedClasses) == 0 {
		return "", false
	}
	return c.PredictedClasses[0].ClassName, true
}

// Description is free text produced by the picture description model.
type Description struct {
	Provenance string `json:"provenance"`
	Text       string `json:"text"`
}

// Kind implements Annotation.
func (Description) Kind() string { return KindDescription }

// Other keeps annotation kinds this service does not interpret (misc, chart data, ...).
type Other struct {
	kind string
	Raw  json.RawMessage
}

// Kind implements Annotation.
func (o Other) Kind() string { return o.kind }

// Annotations decodes the polymorphic annotation list by its "kind" field.
type Annotations []Annotation

// UnmarshalJSON implements json.Unmarshaler.
func (a *Annotations) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("annotations: %w", err)
	}

	out := make(Annotations, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("annotation %d: %w", i, err)
		}

		switch head.Kind {
		case KindClassification:
			var c Classification
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("classification annotation %d: %w", i, err)
			}
			out = append(out, c)
		case KindDescription:
			var d Description
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("description annotation %d: %w", i, err)
			}
			out = append(out, d)
		default:
			out = append(out, Other{kind: head.Kind, Raw: append(json.RawMessage(nil), raw...)})
		}
	}
	*a = out
	return nil
}
