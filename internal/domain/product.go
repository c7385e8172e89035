package domain

import "time"

// ImageState describes where an image sits in its upload lifecycle.
type ImageState int

const (
	// ImagePending means the image only exists locally: a preview handle has
	// been generated but no remote identifier was assigned yet.
	ImagePending ImageState = iota
	// ImageCommitted means the remote store assigned an identifier and URL.
	ImageCommitted
)

// ImageRef is one entry of a product's ordered image sequence. Pending and
// committed entries may coexist in the same slice.
type ImageRef struct {
	RemoteID string `json:"_id,omitempty"`
	URL      string `json:"url,omitempty"`
	// Preview is a transient, session-local handle used for optimistic
	// display before the upload completes. Never sent to the remote API.
	Preview string `json:"-"`
}

// Pending reports whether the entry has a local preview but no remote id.
func (r ImageRef) Pending() bool {
	return r.Preview != "" && r.RemoteID == ""
}

// Committed reports whether the remote identifier and URL are both populated.
func (r ImageRef) Committed() bool {
	return r.RemoteID != "" && r.URL != ""
}

// SessionUploaded reports whether the entry was committed during the current
// form session, i.e. it still carries the preview handle it was born with.
// Pre-existing images hydrated from a persisted product never have one.
func (r ImageRef) SessionUploaded() bool {
	return r.Committed() && r.Preview != ""
}

// State returns the lifecycle state of the entry.
func (r ImageRef) State() ImageState {
	if r.Committed() {
		return ImageCommitted
	}
	return ImagePending
}

// ProductDraft is the mutable, in-progress representation of a product being
// created or edited. Price fields are kept as free-text strings exactly as
// the form collects them; "" means absent. The draft is owned by a single
// form controller for the lifetime of one form session.
type ProductDraft struct {
	Name        string
	Description string
	Code        string
	SKU         string
	Brand       string

	Price     string
	PriceSale string
	Available string

	Status   string
	Gender   string
	Category string

	Sold          int
	InventoryType string

	Tags   []string
	Sizes  []string
	Colors []string

	IsFeatured bool

	Images []ImageRef
}

// CommittedImages returns the committed subset of the draft's images,
// preserving order.
func (d *ProductDraft) CommittedImages() []ImageRef {
	out := make([]ImageRef, 0, len(d.Images))
	for _, img := range d.Images {
		if img.Committed() {
			out = append(out, img)
		}
	}
	return out
}

// PersistedProduct is the server-side record returned by the remote product
// API after a successful create or update.
type PersistedProduct struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Code          string     `json:"code"`
	SKU           string     `json:"sku"`
	Brand         string     `json:"brand"`
	Price         float64    `json:"price"`
	PriceSale     float64    `json:"priceSale"`
	Status        string     `json:"status"`
	Gender        string     `json:"gender"`
	Category      string     `json:"category"`
	Available     int        `json:"available"`
	Sold          int        `json:"sold"`
	InventoryType string     `json:"inventoryType"`
	Tags          []string   `json:"tags"`
	Sizes         []string   `json:"sizes"`
	Colors        []string   `json:"colors"`
	IsFeatured    bool       `json:"isFeatured"`
	Images        []ImageRef `json:"images"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Category is one node of the shop's sub-category tree as the category
// selector consumes it.
type Category struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	ParentCategory string `json:"parentCategory"`
}

// GroupByParent buckets categories under their parent name, preserving the
// order parents first appear in. The form's grouped selector renders one
// group per parent.
func GroupByParent(cats []Category) [][]Category {
	var order []string
	groups := make(map[string][]Category)
	for _, c := range cats {
		if _, ok := groups[c.ParentCategory]; !ok {
			order = append(order, c.ParentCategory)
		}
		groups[c.ParentCategory] = append(groups[c.ParentCategory], c)
	}
	out := make([][]Category, 0, len(order))
	for _, p := range order {
		out = append(out, groups[p])
	}
	return out
}
