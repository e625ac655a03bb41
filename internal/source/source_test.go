package source

import (
	"strings"
	"testing"
)

func TestParse_HeaderMappingAndDefaults(t *testing.T) {
	csv := "url,strategy,category,name\n" +
		"https://example.com,static,company,Example\n" +
		"acme.io,dynamic,freelance,\n" +
		"https://dir.example.org,weird,directory,Dir\n"

	sources, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}
	if sources[0].Strategy != StrategyStatic || sources[0].Name != "Example" {
		t.Fatalf("unexpected first source: %+v", sources[0])
	}
	// Scheme-less URL gains https and the name defaults to the domain.
	if sources[1].URL != "https://acme.io" {
		t.Fatalf("expected https prefix, got %q", sources[1].URL)
	}
	if sources[1].Name != "acme.io" {
		t.Fatalf("expected domain fallback name, got %q", sources[1].Name)
	}
	// Unknown strategy falls back to auto instead of failing.
	if sources[2].Strategy != StrategyAuto {
		t.Fatalf("expected auto fallback, got %q", sources[2].Strategy)
	}
	if sources[2].Category != CategoryDirectory {
		t.Fatalf("expected directory category, got %q", sources[2].Category)
	}
}

func TestParse_MissingURLColumn(t *testing.T) {
	if _, err := Parse(strings.NewReader("name,strategy\nfoo,auto\n")); err == nil {
		t.Fatalf("expected error for missing url column")
	}
}

func TestParse_SkipsBlankRows(t *testing.T) {
	sources, err := Parse(strings.NewReader("url\n\"\"\nhttps://a.example\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
}

func TestDomain_StripsWWW(t *testing.T) {
	s := Source{URL: "https://www.Example.COM/about"}
	if got := s.Domain(); got != "example.com" {
		t.Fatalf("expected example.com, got %q", got)
	}
}
