package domain

import "time"

// Category names are fixed; the storefront renders one page per category and the
// admin form only accepts these values.
const (
	CategoryHoodies     = "Hoodies"
	CategoryTees        = "Tees"
	CategoryHeadwear    = "Headwear"
	CategoryAccessories = "Accessories"
	CategoryShoes       = "Shoes"
	CategoryNewArrivals = "New Arrivals"
)

// Categories lists every storefront category in display order.
func Categories() []string {
	return []string{
		CategoryHoodies,
		CategoryTees,
		CategoryHeadwear,
		CategoryAccessories,
		CategoryShoes,
		CategoryNewArrivals,
	}
}

// ValidCategory reports whether the given name is one of the fixed categories.
func ValidCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// ProductSizes is the full size run offered by the admin form. Products carry a
// subset; an empty slice means the product has no size dimension.
func ProductSizes() []string {
	return []string{"XS", "S", "M", "L", "XL", "XXL"}
}

// Product is a catalog row. Prices are whole Naira.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Category    string
	Images      []string
	Sizes       []string
	Slug        string
	InStock     bool
	CreatedAt   time.Time
}

// PrimaryImage returns the grid image, the first entry of Images.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Admin is an allow-list row. Email is stored lower-cased.
type Admin struct {
	ID        string
	Email     string
	CreatedBy string
	CreatedAt time.Time
}
