// Package catalogapi is the client for the remote product API the dashboard
// administers. Responses arrive in the backend's uniform envelope
// ({success, message, data}); the data member is decoded generically and
// mapped onto typed records.
package catalogapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/nextall/admincore/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProductPayload is the create/update request body, shaped exactly as the
// backend expects it. Prices are numeric here: the form controller coalesces
// and converts the draft's free-text fields before building a payload.
type ProductPayload struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Code          string            `json:"code"`
	SKU           string            `json:"sku"`
	Brand         string            `json:"brand"`
	Price         float64           `json:"price"`
	PriceSale     float64           `json:"priceSale"`
	Status        string            `json:"status"`
	Gender        string            `json:"gender"`
	Category      string            `json:"category"`
	Available     int               `json:"available"`
	Sold          int               `json:"sold"`
	InventoryType string            `json:"inventoryType,omitempty"`
	Tags          []string          `json:"tags"`
	Sizes         []string          `json:"sizes"`
	Colors        []string          `json:"colors"`
	IsFeatured    bool              `json:"isFeatured"`
	Images        []domain.ImageRef `json:"images"`
	CreatedAt     string            `json:"createdAt,omitempty"`
}

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Client talks to the product API over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// CreateProduct persists a new product and returns the server record.
func (c *Client) CreateProduct(ctx context.Context, p ProductPayload) (*domain.PersistedProduct, error) {
	env, err := c.call(ctx, http.MethodPost, c.url("/products"), p)
	if err != nil {
		return nil, err
	}
	return decodeProduct(env.Data)
}

// UpdateProduct updates an existing product by id and returns the server record.
func (c *Client) UpdateProduct(ctx context.Context, id string, p ProductPayload) (*domain.PersistedProduct, error) {
	env, err := c.call(ctx, http.MethodPut, c.url("/products/"+id), p)
	if err != nil {
		return nil, err
	}
	return decodeProduct(env.Data)
}

// ListSubCategories fetches the flat sub-category list the category selector
// groups by parent.
func (c *Client) ListSubCategories(ctx context.Context) ([]domain.Category, error) {
	env, err := c.call(ctx, http.MethodGet, c.url("/sub-categories"), nil)
	if err != nil {
		return nil, err
	}
	var cats []domain.Category
	if err := decodeData(env.Data, &cats); err != nil {
		return nil, errors.Wrap(err, "catalogapi: decode categories")
	}
	return cats, nil
}

func (c *Client) call(ctx context.Context, method, url string, body interface{}) (*envelope, error) {
	var (
		raw  []byte
		code int
	)
	var df *dataflow.DataFlow
	switch method {
	case http.MethodPost:
		df = gout.POST(url)
	case http.MethodPut:
		df = gout.PUT(url)
	default:
		df = gout.GET(url)
	}
	df = df.WithContext(ctx).
		SetTimeout(c.timeout).
		Code(&code).
		BindBody(&raw)
	if body != nil {
		df = df.SetJSON(body)
	}
	if err := df.Do(); err != nil {
		return nil, errors.Wrapf(err, "catalogapi: %s %s", method, url)
	}

	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			return nil, errors.Wrapf(err, "catalogapi: decode response of %s %s", method, url)
		}
	}
	if code < 200 || code >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(code)
		}
		return nil, errors.Errorf("catalogapi: %s %s: %s", method, url, msg)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return nil, errors.Errorf("catalogapi: %s", msg)
	}
	return env, nil
}

func decodeProduct(data interface{}) (*domain.PersistedProduct, error) {
	var p domain.PersistedProduct
	if err := decodeData(data, &p); err != nil {
		return nil, errors.Wrap(err, "catalogapi: decode product")
	}
	return &p, nil
}

// decodeData maps the generically unmarshalled data member onto a typed
// target. Hooked string-to-time decoding covers the RFC3339 stamps the
// backend emits.
func decodeData(data, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
