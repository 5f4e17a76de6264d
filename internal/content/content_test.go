package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSiteFallsBackToDefault(t *testing.T) {
	loader := NewLoader(t.TempDir())
	site := loader.Site()
	if site.Brand == "" {
		t.Fatal("expected default brand")
	}
	if len(site.CategoryRows) == 0 {
		t.Fatal("expected default category tiles")
	}
}

func TestSiteOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.yaml"), `
brand: NYNT
tagline: Worn loud.
hero:
  title: Drop 09
  cta_label: Shop the drop
  cta_link: /new-arrivals
`)
	loader := NewLoader(dir)
	site := loader.Site()
	if site.Brand != "NYNT" {
		t.Fatalf("expected overlaid brand, got %q", site.Brand)
	}
	if site.Hero.Title != "Drop 09" {
		t.Fatalf("expected overlaid hero, got %q", site.Hero.Title)
	}
	if len(site.CategoryRows) == 0 {
		t.Fatal("expected default tiles to survive partial overlay")
	}
}

func TestPageParsesFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "about.md"), `---
title: About Us
summary: Who we are.
updated_at: 2025-01-15
---

We make clothes.
`)
	loader := NewLoader(dir)
	page, err := loader.Page("about")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "About Us" {
		t.Fatalf("expected title %q, got %q", "About Us", page.Title)
	}
	if page.Summary != "Who we are." {
		t.Fatalf("expected summary, got %q", page.Summary)
	}
	if page.Body != "We make clothes.\n" {
		t.Fatalf("unexpected body %q", page.Body)
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !page.UpdatedAt.Equal(want) {
		t.Fatalf("expected updated_at %v, got %v", want, page.UpdatedAt)
	}
}

func TestPageWithoutFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "size-guide.md"), "Measure twice.\n")
	loader := NewLoader(dir)
	page, err := loader.Page("size-guide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "Size Guide" {
		t.Fatalf("expected prettified title, got %q", page.Title)
	}
	if page.Body != "Measure twice.\n" {
		t.Fatalf("unexpected body %q", page.Body)
	}
}

func TestPageNotFound(t *testing.T) {
	loader := NewLoader(t.TempDir())
	if _, err := loader.Page("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPageRejectsTraversal(t *testing.T) {
	loader := NewLoader(t.TempDir())
	for _, slug := range []string{"../secret", "a/b", ""} {
		if _, err := loader.Page(slug); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %q, got %v", slug, err)
		}
	}
}

func TestPageCacheServesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages", "about.md")
	writeFile(t, path, "First.\n")

	loader := NewLoader(dir, WithCacheTTL(time.Hour))
	first, err := loader.Page("about")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, path, "Second.\n")
	again, err := loader.Page("about")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Body != first.Body {
		t.Fatalf("expected cached body, got %q", again.Body)
	}
}
