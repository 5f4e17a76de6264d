// Package content loads editorial site copy from local files. The storefront
// chrome (hero, category tiles, footer) comes from a yaml file and the static
// pages (about, lookbook) from markdown with yaml front matter. Missing files
// fall back to compiled-in defaults so a fresh checkout renders.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates no such page exists under the content directory.
var ErrNotFound = errors.New("content: not found")

const (
	defaultContentDir = "content"
	siteFileName      = "site.yaml"
)

// Site is the storefront chrome configuration.
type Site struct {
	Brand        string `yaml:"brand"`
	Tagline      string `yaml:"tagline"`
	Hero         Hero   `yaml:"hero"`
	CategoryRows []Tile `yaml:"category_tiles"`
	FooterNote   string `yaml:"footer_note"`
	Instagram    string `yaml:"instagram"`
}

// Hero is the landing banner.
type Hero struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Image    string `yaml:"image"`
	CTALabel string `yaml:"cta_label"`
	CTALink  string `yaml:"cta_link"`
}

// Tile links a home-page panel to a category page.
type Tile struct {
	Label string `yaml:"label"`
	Link  string `yaml:"link"`
	Image string `yaml:"image"`
}

// Page is a static markdown page.
type Page struct {
	Slug      string
	Title     string
	Summary   string
	Body      string
	UpdatedAt time.Time
}

type pageFrontMatter struct {
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	UpdatedAt string `yaml:"updated_at"`
}

// Loader reads site copy from a directory, caching parsed results.
type Loader struct {
	dir      string
	cacheTTL time.Duration

	mu    sync.RWMutex
	site  *siteCacheEntry
	pages map[string]pageCacheEntry
}

type siteCacheEntry struct {
	site    Site
	expires time.Time
}

type pageCacheEntry struct {
	page    Page
	expires time.Time
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithCacheTTL overrides the parse cache duration, primarily for tests.
func WithCacheTTL(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.cacheTTL = d
		}
	}
}

// NewLoader builds a Loader rooted at dir. An empty dir uses "content".
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultContentDir
	}
	l := &Loader{
		dir:      dir,
		cacheTTL: 5 * time.Minute,
		pages:    map[string]pageCacheEntry{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Site returns the storefront chrome, falling back to the compiled-in default
// when the yaml file is absent or unreadable.
func (l *Loader) Site() Site {
	now := time.Now()
	l.mu.RLock()
	cached := l.site
	l.mu.RUnlock()
	if cached != nil && now.Before(cached.expires) {
		return cached.site
	}

	site := defaultSite()
	data, err := os.ReadFile(filepath.Join(l.dir, siteFileName))
	if err == nil {
		var parsed Site
		if yaml.Unmarshal(data, &parsed) == nil {
			site = mergeSite(site, parsed)
		}
	}

	l.mu.Lock()
	l.site = &siteCacheEntry{site: site, expires: now.Add(l.cacheTTL)}
	l.mu.Unlock()
	return site
}

// Page loads a markdown page by slug from <dir>/pages/<slug>.md.
func (l *Loader) Page(slug string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}

	now := time.Now()
	l.mu.RLock()
	entry, ok := l.pages[slug]
	l.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.page, nil
	}

	page, err := readPage(l.dir, slug)
	if err != nil {
		return Page{}, err
	}

	l.mu.Lock()
	l.pages[slug] = pageCacheEntry{page: page, expires: now.Add(l.cacheTTL)}
	l.mu.Unlock()
	return page, nil
}

func readPage(dir, slug string) (Page, error) {
	file := filepath.Join(dir, "pages", slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}

	fm, body := splitFrontMatter(string(data))
	front := pageFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}

	page := Page{
		Slug:      slug,
		Title:     strings.TrimSpace(front.Title),
		Summary:   strings.TrimSpace(front.Summary),
		Body:      body,
		UpdatedAt: parseDate(front.UpdatedAt),
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	if page.UpdatedAt.IsZero() {
		if info, statErr := os.Stat(file); statErr == nil {
			page.UpdatedAt = info.ModTime()
		}
	}
	return page, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\uFEFF")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 {
		return "", ""
	}
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339, "2006-01-02", "2006/01/02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsRune(slug, os.PathSeparator) {
		return ""
	}
	return slug
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		if runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] -= 'a' - 'A'
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

// mergeSite overlays non-empty fields from the yaml file onto the default.
func mergeSite(base, overlay Site) Site {
	out := base
	if overlay.Brand != "" {
		out.Brand = overlay.Brand
	}
	if overlay.Tagline != "" {
		out.Tagline = overlay.Tagline
	}
	if overlay.FooterNote != "" {
		out.FooterNote = overlay.FooterNote
	}
	if overlay.Instagram != "" {
		out.Instagram = overlay.Instagram
	}
	if overlay.Hero != (Hero{}) {
		out.Hero = overlay.Hero
	}
	if len(overlay.CategoryRows) > 0 {
		out.CategoryRows = overlay.CategoryRows
	}
	return out
}

func defaultSite() Site {
	return Site{
		Brand:   "P9",
		Tagline: "Independent streetwear, made in small runs.",
		Hero: Hero{
			Title:    "New season, new shapes",
			Subtitle: "The latest drop is live.",
			CTALabel: "Shop new arrivals",
			CTALink:  "/new-arrivals",
		},
		CategoryRows: []Tile{
			{Label: "Hoodies", Link: "/hoodies"},
			{Label: "Tees", Link: "/tees"},
			{Label: "Headwear", Link: "/headwear"},
			{Label: "Accessories", Link: "/accessories"},
			{Label: "Shoes", Link: "/shoes"},
		},
		FooterNote: "P9. All rights reserved.",
	}
}
