package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/platform/observability"
)

// RouterConfig carries the non-handler wiring of the HTTP surface.
type RouterConfig struct {
	PublicDir string
	Logger    *zap.Logger
}

// NewRouter assembles the chi router for the whole site.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PublicDir != "" {
		assets := http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(cfg.PublicDir, "assets"))))
		r.Handle("/assets/*", assets)
	}

	r.Get("/", h.Home)
	for path, label := range categoryRoutes() {
		r.Get(path, h.Category(label))
	}
	r.Get("/product/{slug}", h.Product)
	r.Get("/about", h.StaticPage("about"))
	r.Get("/lookbook", h.StaticPage("lookbook"))

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Cart)
		r.Post("/add", h.CartAdd)
		r.Post("/update", h.CartUpdate)
		r.Post("/remove", h.CartRemove)
		r.Post("/clear", h.CartClear)
	})

	r.Get("/admin/login", h.LoginPage)
	r.Post("/admin/login", h.LoginSubmit)
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/login", http.StatusMovedPermanently)
	})
	r.Get("/auth/callback", h.AuthCallback)
	r.Post("/auth/session", h.CompleteSignIn)
	r.Post("/admin/logout", h.Logout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireAdmin)
		r.Get("/", h.AdminProducts)
		r.Get("/products/new", h.AdminProductForm)
		r.Get("/products/{id}/edit", h.AdminProductForm)
		r.Post("/products", h.AdminProductSave)
		r.Post("/products/{id}/delete", h.AdminProductDelete)
		r.Get("/admins", h.AdminList)
		r.Post("/admins", h.AdminAdd)
		r.Post("/admins/{id}/delete", h.AdminRemove)
	})

	r.NotFound(h.notFound)

	return r
}
