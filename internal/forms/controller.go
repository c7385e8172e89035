// Package forms owns the product form session: draft state, the validation
// rule set, and submit orchestration against the remote product API.
package forms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/nextall/admincore/config"
	"github.com/nextall/admincore/internal/catalogapi"
	"github.com/nextall/admincore/internal/domain"
	"github.com/nextall/admincore/internal/notify"
)

// CatalogAPI is the slice of the remote product API the controller consumes.
type CatalogAPI interface {
	CreateProduct(ctx context.Context, p catalogapi.ProductPayload) (*domain.PersistedProduct, error)
	UpdateProduct(ctx context.Context, id string, p catalogapi.ProductPayload) (*domain.PersistedProduct, error)
	ListSubCategories(ctx context.Context) ([]domain.Category, error)
}

var _ CatalogAPI = (*catalogapi.Client)(nil)

// FieldErrors maps field name to the message of the rule it violated.
// An empty map means the draft is valid.
type FieldErrors map[string]string

// ValidationError is returned by Submit when the draft fails validation.
// It is surfaced inline per field, never as a notification.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Controller owns one ProductDraft for the lifetime of a form session.
// All mutations funnel through Apply, the single serialized update channel;
// concurrent upload callbacks never touch the draft directly.
type Controller struct {
	mu    sync.Mutex
	draft domain.ProductDraft

	editing   bool
	productID string

	opts     config.CatalogOptions
	api      CatalogAPI
	notifier notify.Notifier
	nav      notify.Navigator
}

func NewController(opts config.CatalogOptions, api CatalogAPI, notifier notify.Notifier, nav notify.Navigator) *Controller {
	return &Controller{opts: opts, api: api, notifier: notifier, nav: nav}
}

// Initialize populates the draft. With existing == nil the create-flow
// defaults apply; otherwise the draft is hydrated from the persisted record.
// categories, when supplied in the create flow, seed the default category
// from the first group's first entry.
func (c *Controller) Initialize(existing *domain.PersistedProduct, categories []domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing == nil {
		c.editing = false
		c.productID = ""
		c.draft = domain.ProductDraft{
			Gender:        c.opts.Gender(),
			Status:        c.opts.Status(),
			Available:     "1",
			Sold:          0,
			InventoryType: "new",
			Tags:          []string{},
			Sizes:         []string{},
			Colors:        []string{},
			Images:        []domain.ImageRef{},
		}
		if grouped := domain.GroupByParent(categories); len(grouped) > 0 && len(grouped[0]) > 0 {
			c.draft.Category = grouped[0][0].Name
		}
		return
	}

	c.editing = true
	c.productID = existing.ID
	gender := existing.Gender
	if gender == "" {
		gender = c.opts.Gender()
	}
	c.draft = domain.ProductDraft{
		Name:          existing.Name,
		Description:   existing.Description,
		Code:          existing.Code,
		SKU:           existing.SKU,
		Brand:         existing.Brand,
		Price:         numberField(existing.Price),
		PriceSale:     numberField(existing.PriceSale),
		Status:        existing.Status,
		Gender:        gender,
		Category:      existing.Category,
		Available:     cast.ToString(existing.Available),
		Sold:          existing.Sold,
		InventoryType: existing.InventoryType,
		Tags:          append([]string{}, existing.Tags...),
		Sizes:         append([]string{}, existing.Sizes...),
		Colors:        append([]string{}, existing.Colors...),
		IsFeatured:    existing.IsFeatured,
		Images:        append([]domain.ImageRef{}, existing.Images...),
	}
}

// numberField renders a stored numeric as the form's free-text value;
// zero hydrates as absent, matching the edit form's `value || ""`.
func numberField(v float64) string {
	if v == 0 {
		return ""
	}
	return cast.ToString(v)
}

// Apply runs fn against the draft under the controller's lock. It is the only
// way collaborators (the upload coordinator in particular) mutate the draft.
func (c *Controller) Apply(fn func(d *domain.ProductDraft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
}

// Snapshot returns a copy of the draft safe to read without holding the lock.
func (c *Controller) Snapshot() domain.ProductDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	d.Tags = append([]string{}, c.draft.Tags...)
	d.Sizes = append([]string{}, c.draft.Sizes...)
	d.Colors = append([]string{}, c.draft.Colors...)
	d.Images = append([]domain.ImageRef{}, c.draft.Images...)
	return d
}

// Editing reports whether the session updates an existing product.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// LoadCategories fetches the sub-category tree for the category selector.
// Failures surface as an error notification, matching the page behavior.
func (c *Controller) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := c.api.ListSubCategories(ctx)
	if err != nil {
		c.notifier.Error(err.Error())
		return nil, err
	}
	return cats, nil
}

// Submit validates the draft and, when clean, issues exactly one create or
// update call. Validation failures never reach the network. Remote failures
// are surfaced as a notification and leave the draft untouched so the user
// may retry manually; there is no automatic retry.
func (c *Controller) Submit(ctx context.Context) (*domain.PersistedProduct, error) {
	d := c.Snapshot()
	if fieldErrs := Validate(d); len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	c.mu.Lock()
	editing, productID := c.editing, c.productID
	c.mu.Unlock()

	payload := c.buildPayload(d, editing)

	var (
		persisted  *domain.PersistedProduct
		err        error
		successMsg string
	)
	if editing {
		persisted, err = c.api.UpdateProduct(ctx, productID, payload)
		successMsg = "Product Updated"
	} else {
		persisted, err = c.api.CreateProduct(ctx, payload)
		successMsg = "New Product Created"
	}
	if err != nil {
		c.notifier.Error(err.Error())
		return nil, err
	}

	zap.L().Info("product submitted",
		zap.String("name", payload.Name),
		zap.Bool("update", editing),
		zap.Int("images", len(payload.Images)),
	)
	c.notifier.Success(successMsg)
	c.nav.NavigateTo("/products")
	return persisted, nil
}

// buildPayload converts the draft into the wire shape: numeric prices with
// the sale price coalesced to the regular price when absent, and images
// partitioned session-uploaded-first. Entries that never committed carry no
// remote identifier and are not sent.
func (c *Controller) buildPayload(d domain.ProductDraft, editing bool) catalogapi.ProductPayload {
	price := cast.ToFloat64(d.Price)
	sale := cast.ToFloat64(d.PriceSale)
	if sale == 0 {
		sale = price
	}

	var session, existing []domain.ImageRef
	for _, img := range d.Images {
		switch {
		case img.SessionUploaded():
			session = append(session, img)
		case img.Committed():
			existing = append(existing, img)
		}
	}
	images := make([]domain.ImageRef, 0, len(session)+len(existing))
	images = append(images, session...)
	images = append(images, existing...)

	p := catalogapi.ProductPayload{
		Name:          d.Name,
		Description:   d.Description,
		Code:          d.Code,
		SKU:           d.SKU,
		Brand:         d.Brand,
		Price:         price,
		PriceSale:     sale,
		Status:        d.Status,
		Gender:        d.Gender,
		Category:      d.Category,
		Available:     cast.ToInt(d.Available),
		Sold:          d.Sold,
		InventoryType: d.InventoryType,
		Tags:          d.Tags,
		Sizes:         d.Sizes,
		Colors:        d.Colors,
		IsFeatured:    d.IsFeatured,
		Images:        images,
	}
	if !editing {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return p
}
