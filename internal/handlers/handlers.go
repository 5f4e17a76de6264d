// Package handlers wires the HTTP surface of the storefront: catalog pages,
// the cart, and the admin back-office.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/admingate"
	"github.com/osegonte/p9-commerce/internal/cart"
	"github.com/osegonte/p9-commerce/internal/catalog"
	"github.com/osegonte/p9-commerce/internal/content"
	"github.com/osegonte/p9-commerce/internal/platform/auth"
	"github.com/osegonte/p9-commerce/internal/session"
)

// Uploader stores a product image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	ObjectName(filename string) string
}

// Deps collects every collaborator of the HTTP layer.
type Deps struct {
	Catalog  *catalog.Service
	Gate     *admingate.Service
	Carts    *cart.Manager
	Sessions *session.Manager
	Content  *content.Loader
	Renderer *Renderer
	// Verifier and Links may be nil when Firebase is not configured; the
	// admin login surface then reports itself unavailable.
	Verifier auth.TokenVerifier
	Links    auth.LinkSender
	Uploads  Uploader
	Logger   *zap.Logger
}

// Handlers is the HTTP handler set.
type Handlers struct {
	catalog  *catalog.Service
	gate     *admingate.Service
	carts    *cart.Manager
	sessions *session.Manager
	content  *content.Loader
	renderer *Renderer
	verifier auth.TokenVerifier
	links    auth.LinkSender
	uploads  Uploader
	logger   *zap.Logger
}

// New validates the dependency set and returns the handler set.
func New(deps Deps) (*Handlers, error) {
	if deps.Catalog == nil {
		return nil, errors.New("handlers: catalog service is required")
	}
	if deps.Gate == nil {
		return nil, errors.New("handlers: admin gate is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("handlers: cart manager is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("handlers: session manager is required")
	}
	if deps.Content == nil {
		return nil, errors.New("handlers: content loader is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("handlers: renderer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		catalog:  deps.Catalog,
		gate:     deps.Gate,
		carts:    deps.Carts,
		sessions: deps.Sessions,
		content:  deps.Content,
		renderer: deps.Renderer,
		verifier: deps.Verifier,
		links:    deps.Links,
		uploads:  deps.Uploads,
		logger:   logger,
	}, nil
}

// browserCart resolves the cart store bound to the requesting browser.
func (h *Handlers) browserCart(w http.ResponseWriter, r *http.Request) *cart.Store {
	id, _, err := h.sessions.CartID(w, r)
	if err != nil {
		h.logger.Warn("cart cookie failed, using shared slot", zap.Error(err))
		id = ""
	}
	return h.carts.Store(r.Context(), id)
}

// pageData assembles the shared layout fields, resolving the cart once.
func (h *Handlers) pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	store := h.browserCart(w, r)
	data := PageData{
		Title:     title,
		Path:      r.URL.Path,
		Site:      h.content.Site(),
		Nav:       buildNav(r.URL.Path),
		CartCount: store.ItemCount(),
	}
	if sess, err := h.sessions.LoadAdmin(r); err == nil {
		data.AdminEmail = sess.Email
	}
	return data
}
