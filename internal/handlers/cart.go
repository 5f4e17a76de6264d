package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/cart"
	"github.com/osegonte/p9-commerce/internal/catalog"
)

// CartLineView is one cart row prepared for rendering.
type CartLineView struct {
	ProductID string
	Slug      string
	Name      string
	Image     string
	Size      string
	SizeLabel string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

// CartData is the view model for the cart page.
type CartData struct {
	PageData
	Lines    []CartLineView
	Subtotal int64
	Empty    bool
}

// Cart renders the cart page.
func (h *Handlers) Cart(w http.ResponseWriter, r *http.Request) {
	store := h.browserCart(w, r)
	snap := store.View()

	data := CartData{
		PageData: h.pageData(w, r, "Your cart"),
		Subtotal: snap.Subtotal,
		Empty:    len(snap.Lines) == 0,
	}
	for _, line := range snap.Lines {
		view := CartLineView{
			ProductID: line.ProductID,
			Slug:      line.Slug,
			Name:      line.Name,
			Image:     line.Image,
			Size:      line.Size.Label,
			SizeLabel: line.Size.String(),
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.UnitPrice * int64(line.Quantity),
		}
		data.Lines = append(data.Lines, view)
	}

	h.renderer.Render(w, "cart", data)
}

// CartAdd handles the add-to-cart form on product pages. The product is
// re-read from the catalog so the stored price is authoritative, not whatever
// the form carried.
func (h *Handlers) CartAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	slug := strings.TrimSpace(r.PostFormValue("slug"))
	product, err := h.catalog.ProductBySlug(r.Context(), slug)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrInvalidInput):
		h.notFound(w, r)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	quantity := parseQuantity(r.PostFormValue("quantity"))
	size := cart.SizeOf(r.PostFormValue("size"))
	if len(product.Sizes) > 0 && !size.Set {
		// Sized products need a size picked; bounce back to the page.
		http.Redirect(w, r, "/product/"+product.Slug, http.StatusSeeOther)
		return
	}

	store := h.browserCart(w, r)
	store.AddLine(r.Context(), cart.Candidate{
		ProductID: product.ID,
		Slug:      product.Slug,
		Name:      product.Name,
		Image:     product.PrimaryImage(),
		UnitPrice: product.Price,
		Size:      size,
	}, quantity)

	h.logger.Debug("cart add",
		zap.String("product_id", product.ID),
		zap.String("size", size.String()),
		zap.Int("quantity", quantity),
	)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartUpdate sets the absolute quantity of a line. A quantity below one
// removes the line.
func (h *Handlers) CartUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	productID := strings.TrimSpace(r.PostFormValue("productId"))
	if productID == "" {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	size := cart.SizeOf(r.PostFormValue("size"))
	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	store := h.browserCart(w, r)
	store.SetQuantity(r.Context(), productID, size, quantity)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartRemove drops a line from the cart.
func (h *Handlers) CartRemove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	productID := strings.TrimSpace(r.PostFormValue("productId"))
	if productID != "" {
		size := cart.SizeOf(r.PostFormValue("size"))
		store := h.browserCart(w, r)
		store.RemoveLine(r.Context(), productID, size)
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartClear empties the cart.
func (h *Handlers) CartClear(w http.ResponseWriter, r *http.Request) {
	store := h.browserCart(w, r)
	store.Clear(r.Context())
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func parseQuantity(raw string) int {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quantity < 1 {
		return 1
	}
	return quantity
}
