package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
)

type mockEngine struct {
	mu      sync.Mutex
	warmed  []conversion.Format
	opts    []Options
	failOn  conversion.Format
	convert func(src conversion.Source, opts Options) (*conversion.Result, error)
}

func (m *mockEngine) Warm(_ context.Context, f conversion.Format, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmed = append(m.warmed, f)
	m.opts = append(m.opts, opts)
	if f == m.failOn {
		return errors.New("model download failed")
	}
	return nil
}

func (m *mockEngine) Convert(_ context.Context, src conversion.Source, opts Options) (*conversion.Result, error) {
	if m.convert != nil {
		return m.convert(src, opts)
	}
	return &conversion.Result{Status: conversion.StatusSuccess}, nil
}

func TestBuild_WarmsEveryFormatInOrder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	eng := &mockEngine{}

	h, err := Build(context.Background(), eng, DefaultOptions(), nil, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := conversion.AllFormats()
	if !slices.Equal(eng.warmed, want) {
		t.Errorf("warmed %v, want %v", eng.warmed, want)
	}
	if !slices.Equal(h.Formats(), want) {
		t.Errorf("formats %v, want %v", h.Formats(), want)
	}

	entries := logs.All()
	if len(entries) != len(want) {
		t.Fatalf("expected %d log lines, got %d", len(want), len(entries))
	}
	if entries[0].Message != "Initializing pdf pipeline 1/7" {
		t.Errorf("unexpected first log line %q", entries[0].Message)
	}
	if entries[6].Message != "Initializing image pipeline 7/7" {
		t.Errorf("unexpected last log line %q", entries[6].Message)
	}
}

func TestBuild_WarmFailureAborts(t *testing.T) {
	eng := &mockEngine{failOn: conversion.FormatHTML}
	formats := []conversion.Format{conversion.FormatPDF, conversion.FormatHTML, conversion.FormatCSV}

	h, err := Build(context.Background(), eng, DefaultOptions(), formats, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if h != nil {
		t.Error("expected nil handle on failure")
	}
	if len(eng.warmed) != 2 {
		t.Errorf("expected warm-up to stop at html, warmed %v", eng.warmed)
	}
}

func TestBuild_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"no languages", func(o *Options) { o.OCRLanguages = nil }},
		{"blank languages", func(o *Options) { o.OCRLanguages = []string{" ", ""} }},
		{"zero scale", func(o *Options) { o.ImageScale = 0 }},
		{"negative scale", func(o *Options) { o.ImageScale = -1 }},
		{"empty prompt", func(o *Options) { o.Description.Prompt = "  " }},
		{"negative tokens", func(o *Options) { o.Description.MaxNewTokens = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			eng := &mockEngine{}
			if _, err := Build(context.Background(), eng, opts, nil, nil); err == nil {
				t.Fatal("expected error")
			}
			if len(eng.warmed) != 0 {
				t.Error("engine warmed despite invalid options")
			}
		})
	}
}

func TestBuild_NilEngine(t *testing.T) {
	if _, err := Build(context.Background(), nil, DefaultOptions(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuild_FreezesOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.OCRLanguages = []string{"en", "de", "en", " fr "}
	opts.OCREngine = ""

	var seen Options
	eng := &mockEngine{convert: func(_ conversion.Source, o Options) (*conversion.Result, error) {
		seen = o
		return &conversion.Result{Status: conversion.StatusSuccess}, nil
	}}
	h, err := Build(context.Background(), eng, opts, []conversion.Format{conversion.FormatPDF}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// caller mutation after Build must not leak into the handle
	opts.OCRLanguages[0] = "xx"
	got := h.Options()
	got.OCRLanguages[1] = "yy"

	if _, err := h.Convert(context.Background(), conversion.FromURL("https://example.com/a.pdf")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(seen.OCRLanguages, []string{"en", "de", "fr"}) {
		t.Errorf("languages %v", seen.OCRLanguages)
	}
	if seen.OCREngine != DefaultOCREngine {
		t.Errorf("ocr engine %q", seen.OCREngine)
	}
	if !slices.Equal(eng.opts[0].OCRLanguages, []string{"en", "de", "fr"}) {
		t.Errorf("warm-up saw %v", eng.opts[0].OCRLanguages)
	}
}

func TestHandle_ConvertPassesEngineError(t *testing.T) {
	boom := errors.New("boom")
	eng := &mockEngine{convert: func(conversion.Source, Options) (*conversion.Result, error) {
		return nil, boom
	}}
	h, err := Build(context.Background(), eng, DefaultOptions(), []conversion.Format{conversion.FormatMarkdown}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.Convert(context.Background(), conversion.FromPath("/tmp/x.md")); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestParseLanguages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"en", []string{"en"}},
		{"en,de", []string{"en", "de"}},
		{" en , de ,en,", []string{"en", "de"}},
		{"", []string{}},
	}
	for _, tc := range tests {
		if got := ParseLanguages(tc.in); !slices.Equal(got, tc.want) {
			t.Errorf("ParseLanguages(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
