package cart

import "strings"

// Size is the optional variant discriminator of a cart line. The zero value
// means the product has no size dimension. A blank or whitespace-only label is
// treated the same as no size, so "" and "unsized" can never become two
// different keys.
type Size struct {
	Label string `json:"label,omitempty" firestore:"label,omitempty"`
	Set   bool   `json:"set" firestore:"set"`
}

// NoSize is the absent variant.
var NoSize = Size{}

// SizeOf builds a Size from a label, trimming whitespace and collapsing blank
// input to NoSize.
func SizeOf(label string) Size {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return NoSize
	}
	return Size{Label: trimmed, Set: true}
}

// String renders the size for display; unsized lines render as "-".
func (s Size) String() string {
	if !s.Set {
		return "-"
	}
	return s.Label
}
