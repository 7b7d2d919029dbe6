package conversion

import "testing"

func TestStatus_Usable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusSuccess, true},
		{StatusPartialSuccess, true},
		{StatusFailure, false},
		{StatusSkipped, false},
		{StatusPending, false},
		{StatusStarted, false},
		{Status(""), false},
	}
	for _, tc := range tests {
		if got := tc.status.Usable(); got != tc.want {
			t.Errorf("%q.Usable() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestFirstUserInputError(t *testing.T) {
	r := Result{Errors: []ErrorItem{
		{ComponentType: ComponentDocumentBackend, Message: "backend"},
		{ComponentType: ComponentUserInput, Message: "first"},
		{ComponentType: ComponentUserInput, Message: "second"},
	}}
	e, ok := r.FirstUserInputError()
	if !ok || e.Message != "first" {
		t.Errorf("got %+v, %v", e, ok)
	}

	empty := Result{Errors: []ErrorItem{{ComponentType: ComponentModel}}}
	if _, ok := empty.FirstUserInputError(); ok {
		t.Error("expected no user input error")
	}
}

func TestFromStream_DefaultName(t *testing.T) {
	s := FromStream("", []byte("x"))
	if s.Filename != "unset_name" {
		t.Errorf("Filename = %q", s.Filename)
	}
	if s.Kind != SourceStream || s.Kind.String() != "stream" {
		t.Errorf("Kind = %v", s.Kind)
	}
}

func TestSource_Ext(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{FromURL("https://example.com/report.PDF?download=1"), "pdf"},
		{FromPath("/tmp/a.docx"), "docx"},
		{FromStream("scan.png", nil), "png"},
		{FromStream("noext", nil), ""},
	}
	for _, tc := range tests {
		if got := tc.src.Ext(); got != tc.want {
			t.Errorf("%s: Ext() = %q, want %q", tc.src.Name(), got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	if err != nil || f != FormatPDF {
		t.Errorf("got %q, %v", f, err)
	}
	if _, err := ParseFormat("pptx"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
