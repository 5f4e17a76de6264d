package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/admingate"
	"github.com/osegonte/p9-commerce/internal/catalog"
	"github.com/osegonte/p9-commerce/internal/domain"
	"github.com/osegonte/p9-commerce/internal/platform/auth"
	"github.com/osegonte/p9-commerce/internal/platform/httpx"
	"github.com/osegonte/p9-commerce/internal/platform/requestctx"
)

const maxUploadBytes = 10 << 20

// LoginData is the view model for the login page.
type LoginData struct {
	PageData
	Sent  bool
	Error string
}

// LoginPage renders the email form for the magic-link flow.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := LoginData{
		PageData: h.pageData(w, r, "Sign in"),
		Sent:     r.URL.Query().Get("sent") == "1",
		Error:    flashMessage(r.URL.Query().Get("err")),
	}
	h.renderer.Render(w, "admin_login", data)
}

// LoginSubmit sends the magic sign-in link. Membership is checked later at
// the callback, so this endpoint does not reveal who is on the allow-list.
func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if h.links == nil {
		http.Redirect(w, r, "/admin/login?err=unavailable", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))
	if email == "" || !strings.Contains(email, "@") {
		http.Redirect(w, r, "/admin/login?err=email", http.StatusSeeOther)
		return
	}

	if _, err := h.links.EmailSignInLink(r.Context(), email); err != nil {
		h.logger.Warn("sign-in link failed", zap.Error(err))
		http.Redirect(w, r, "/admin/login?err=unavailable", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/login?sent=1", http.StatusSeeOther)
}

// AuthCallback renders the page the magic link lands on. The embedded script
// completes the sign-in in the browser and posts the ID token to
// CompleteSignIn.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(w, r, "Signing in")
	h.renderer.Render(w, "auth_callback", data)
}

// CompleteSignIn verifies the posted ID token and branches on allow-list
// membership: admins get a session and land on the back-office, everyone
// else is sent to the storefront.
func (h *Handlers) CompleteSignIn(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("unavailable", "sign-in is not configured", http.StatusServiceUnavailable))
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "malformed form", http.StatusBadRequest))
		return
	}

	idToken := strings.TrimSpace(r.PostFormValue("idToken"))
	if idToken == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "missing token", http.StatusBadRequest))
		return
	}

	token, err := h.verifier.VerifyIDToken(r.Context(), idToken)
	if err != nil {
		h.logger.Warn("token verification failed", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "invalid token", http.StatusUnauthorized))
		return
	}

	email := auth.EmailFromToken(token)
	if err := h.gate.Authorize(r.Context(), email); err != nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"redirect": "/"})
		return
	}

	if err := h.sessions.SaveAdmin(w, email); err != nil {
		h.logger.Error("session write failed", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("internal", "could not start session", http.StatusInternalServerError))
		return
	}

	h.logger.Info("admin signed in", zap.String("email", email))
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"redirect": "/admin"})
}

// Logout clears the admin session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.DestroyAdmin(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RequireAdmin gates the back-office. The allow-list is consulted on every
// request so a removed admin loses access immediately, not at session expiry.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.LoadAdmin(r)
		if err != nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		if err := h.gate.Authorize(r.Context(), sess.Email); err != nil {
			h.sessions.DestroyAdmin(w)
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		if err := h.sessions.TouchAdmin(w, sess); err != nil {
			h.logger.Warn("session refresh failed", zap.Error(err))
		}

		ctx := requestctx.WithAdminEmail(r.Context(), sess.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminProductsData is the view model for the back-office product list.
type AdminProductsData struct {
	PageData
	Products []ProductView
	Error    string
}

// AdminProducts lists every product, including out-of-stock ones.
func (h *Handlers) AdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.AdminProducts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data := AdminProductsData{
		PageData: h.pageData(w, r, "Products"),
		Products: productViews(products),
		Error:    flashMessage(r.URL.Query().Get("err")),
	}
	h.renderer.Render(w, "admin_products", data)
}

// AdminProductFormData is the view model for the create and edit forms.
type AdminProductFormData struct {
	PageData
	Product    ProductView
	Categories []string
	AllSizes   []string
	IsNew      bool
}

// AdminProductForm renders an empty create form or a populated edit form.
func (h *Handlers) AdminProductForm(w http.ResponseWriter, r *http.Request) {
	data := AdminProductFormData{
		PageData:   h.pageData(w, r, "New product"),
		Categories: domain.Categories(),
		AllSizes:   domain.ProductSizes(),
		IsNew:      true,
	}

	if id := chi.URLParam(r, "id"); id != "" {
		products, err := h.catalog.AdminProducts(r.Context())
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		found := false
		for _, p := range products {
			if p.ID == id {
				data.Product = productView(p)
				found = true
				break
			}
		}
		if !found {
			h.notFound(w, r)
			return
		}
		data.IsNew = false
		data.Title = "Edit product"
	}

	h.renderer.Render(w, "admin_product_form", data)
}

// AdminProductSave handles the multipart product form, uploading a new image
// when one was attached.
func (h *Handlers) AdminProductSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	price, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("price")), 10, 64)
	cmd := catalog.SaveProductCommand{
		ID:          r.PostFormValue("id"),
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Price:       price,
		Category:    r.PostFormValue("category"),
		Sizes:       r.PostForm["sizes"],
		InStock:     r.PostFormValue("inStock") == "on",
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if h.uploads == nil {
			http.Redirect(w, r, "/admin?err=uploads", http.StatusSeeOther)
			return
		}
		object := h.uploads.ObjectName(header.Filename)
		url, err := h.uploads.Upload(r.Context(), object, header.Header.Get("Content-Type"), file)
		if err != nil {
			h.logger.Error("image upload failed", zap.Error(err))
			http.Redirect(w, r, "/admin?err=uploads", http.StatusSeeOther)
			return
		}
		cmd.Image = url
	}

	if _, err := h.catalog.SaveProduct(r.Context(), cmd); err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			http.Redirect(w, r, "/admin?err=invalid", http.StatusSeeOther)
			return
		}
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// AdminProductDelete removes a product.
func (h *Handlers) AdminProductDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// AdminListData is the view model for the allow-list page.
type AdminListData struct {
	PageData
	Admins []domain.Admin
	Error  string
}

// AdminList shows the allow-list.
func (h *Handlers) AdminList(w http.ResponseWriter, r *http.Request) {
	admins, err := h.gate.ListAdmins(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data := AdminListData{
		PageData: h.pageData(w, r, "Admins"),
		Admins:   admins,
		Error:    flashMessage(r.URL.Query().Get("err")),
	}
	h.renderer.Render(w, "admin_admins", data)
}

// AdminAdd puts a new email on the allow-list.
func (h *Handlers) AdminAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	createdBy := requestctx.AdminEmail(r.Context())
	_, err := h.gate.AddAdmin(r.Context(), r.PostFormValue("email"), createdBy)
	switch {
	case errors.Is(err, admingate.ErrInvalidInput):
		http.Redirect(w, r, "/admin/admins?err=email", http.StatusSeeOther)
	case errors.Is(err, admingate.ErrAlreadyAdmin):
		http.Redirect(w, r, "/admin/admins?err=duplicate", http.StatusSeeOther)
	case err != nil:
		h.serverError(w, r, err)
	default:
		http.Redirect(w, r, "/admin/admins", http.StatusSeeOther)
	}
}

// AdminRemove deletes an allow-list entry. Self removal is refused by the
// gate and surfaced as a flash message.
func (h *Handlers) AdminRemove(w http.ResponseWriter, r *http.Request) {
	requestedBy := requestctx.AdminEmail(r.Context())
	err := h.gate.RemoveAdmin(r.Context(), chi.URLParam(r, "id"), requestedBy)
	switch {
	case errors.Is(err, admingate.ErrSelfRemoval):
		http.Redirect(w, r, "/admin/admins?err=self", http.StatusSeeOther)
	case errors.Is(err, admingate.ErrAdminNotFound), errors.Is(err, admingate.ErrInvalidInput):
		http.Redirect(w, r, "/admin/admins?err=missing", http.StatusSeeOther)
	case err != nil:
		h.serverError(w, r, err)
	default:
		http.Redirect(w, r, "/admin/admins", http.StatusSeeOther)
	}
}

func flashMessage(code string) string {
	switch code {
	case "self":
		return "You cannot remove yourself from the admin list."
	case "duplicate":
		return "That email is already an admin."
	case "email":
		return "Enter a valid email address."
	case "missing":
		return "That entry no longer exists."
	case "invalid":
		return "The product form had invalid fields."
	case "uploads":
		return "Image upload is not available right now."
	case "unavailable":
		return "Sign-in is temporarily unavailable."
	default:
		return ""
	}
}
