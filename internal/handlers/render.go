package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

var (
	markdownEngine = goldmark.New(goldmark.WithExtensions(extension.GFM))
	markdownPolicy = bluemonday.UGCPolicy()
)

// Renderer executes page templates. In dev mode templates are reparsed on
// each request so edits show up without a restart.
type Renderer struct {
	dir    string
	dev    bool
	logger *zap.Logger

	mu    sync.RWMutex
	cache *template.Template
}

// NewRenderer parses every .tmpl file under dir. Outside dev mode a parse
// failure is fatal for the caller.
func NewRenderer(dir string, dev bool, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{dir: dir, dev: dev, logger: logger}
	if !dev {
		cache, err := parseTemplates(dir)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

// Render writes the named page template. Pages carry unique template names so
// a single parsed tree serves the whole site.
func (r *Renderer) Render(w http.ResponseWriter, page string, data any) {
	r.RenderStatus(w, http.StatusOK, page, data)
}

// RenderStatus renders a page with an explicit response status.
func (r *Renderer) RenderStatus(w http.ResponseWriter, status int, page string, data any) {
	t, err := r.templates()
	if err != nil {
		r.logger.Error("template parse failed", zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	// Execute into a buffer first so a mid-render failure does not leak a
	// half-written page.
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, page, data); err != nil {
		r.logger.Error("template exec failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) templates() (*template.Template, error) {
	if r.dev {
		return parseTemplates(r.dir)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cache == nil {
		return nil, fmt.Errorf("templates not initialised")
	}
	return r.cache, nil
}

func parseTemplates(dir string) (*template.Template, error) {
	var files []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	return template.New("_root").Funcs(templateFuncs()).ParseFiles(files...)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"naira":    FormatNaira,
		"markdown": RenderMarkdown,
		"now":      time.Now,
		"hasString": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
	}
}

// FormatNaira renders a whole-Naira amount with thousands separators.
func FormatNaira(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₦")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// RenderMarkdown converts trusted-ish markdown to sanitised HTML.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(markdownPolicy.SanitizeBytes(buf.Bytes()))
}
