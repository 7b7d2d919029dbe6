// Package conversion models what goes into and comes out of one pipeline call.
package conversion

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

// ErrSourceNotFound is the root cause reported when a URL, path or upload
// cannot be located. Engine adapters and preflight checks wrap it.
var ErrSourceNotFound = errors.New("source not found")

// LimitError reports a source that exceeds a configured input limit.
// Message is safe to show to the caller.
type LimitError struct {
	Message string
}

func (e *LimitError) Error() string { return "input limit: " + e.Message }

// Status is the pipeline's verdict on a conversion.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailure        Status = "failure"
	StatusSkipped        Status = "skipped"
	StatusPending        Status = "pending"
	StatusStarted        Status = "started"
)

// Usable reports whether the result carries a document callers may consume.
// Partial success counts: some enrichment stages may have failed silently.
func (s Status) Usable() bool {
	return s == StatusSuccess || s == StatusPartialSuccess
}

// ComponentType tags the pipeline component an error record originates from.
type ComponentType string

const (
	ComponentDocumentBackend ComponentType = "document_backend"
	ComponentModel           ComponentType = "model"
	ComponentDocAssembler    ComponentType = "doc_assembler"
	ComponentUserInput       ComponentType = "user_input"
)

// ErrorItem is one error record reported by the pipeline.
type ErrorItem struct {
	ComponentType ComponentType `json:"component_type"`
	ModuleName    string        `json:"module_name"`
	Message       string        `json:"error_message"`
}

// Result is the outcome of one conversion. Document is nil unless Status is usable.
type Result struct {
	Status         Status
	Errors         []ErrorItem
	Document       *document.Document
	ProcessingTime time.Duration
}

// FirstUserInputError returns the first error record attributed to user input.
func (r *Result) FirstUserInputError() (ErrorItem, bool) {
	for _, e := range r.Errors {
		if e.ComponentType == ComponentUserInput {
			return e, true
		}
	}
	return ErrorItem{}, false
}

// SourceKind distinguishes the three ways a document reaches the pipeline.
type SourceKind int

const (
	SourceURL SourceKind = iota + 1
	SourcePath
	SourceStream
)

func (k SourceKind) String() string {
	switch k {
	case SourceURL:
		return "url"
	case SourcePath:
		return "path"
	case SourceStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Source references a document to convert.
type Source struct {
	Kind     SourceKind
	Location string // URL or filesystem path
	Filename string // stream only
	Data     []byte // stream only
}

// FromURL references a remote document.
func FromURL(u string) Source {
	return Source{Kind: SourceURL, Location: u}
}

// FromPath references a local file.
func FromPath(p string) Source {
	return Source{Kind: SourcePath, Location: p}
}

// FromStream wraps uploaded bytes. An empty filename becomes "unset_name".
func FromStream(filename string, data []byte) Source {
	if filename == "" {
		filename = "unset_name"
	}
	return Source{Kind: SourceStream, Filename: filename, Data: data}
}

// Name is a short label for logs: URL, path or filename.
func (s Source) Name() string {
	if s.Kind == SourceStream {
		return s.Filename
	}
	return s.Location
}

// Ext returns the lower-cased extension of the source name, without the dot.
func (s Source) Ext() string {
	name := s.Name()
	if s.Kind == SourceURL {
		name, _, _ = strings.Cut(name, "?")
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Format is an input format the pipeline can be warmed for.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatAsciiDoc Format = "asciidoc"
	FormatImage    Format = "image"
)

// AllFormats lists every supported input format in warm-up order.
func AllFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatHTML, FormatMarkdown, FormatCSV, FormatAsciiDoc, FormatImage}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported input format %q", s)
}
