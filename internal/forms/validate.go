package forms

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/nextall/admincore/internal/domain"
)

// Validation messages, keyed by form field name.
const (
	msgNameRequired        = "name is required"
	msgDescriptionRequired = "description is required"
	msgImagesRequired      = "images is required"
	msgPriceRequired       = "price is required"
	msgPriceNumeric        = "price must be a number"
	msgBrandRequired       = "brand is required"
	msgStatusRequired      = "status is required"
	msgQuantityRequired    = "quantity is required"
	msgQuantityNumeric     = "quantity must be a number"
	msgQuantityNegative    = "quantity must be zero or more"
	msgTagsRequired        = "tags is required"
	msgCategoryRequired    = "category is required"
	msgCodeRequired        = "code is required"
	msgSKURequired         = "sku is required"
	msgSaleNumeric         = "sale price must be a number"
	msgSaleBelowPrice      = "sale price should be smaller than price"
)

// Validate applies the product rule set and returns one message per violated
// field. An empty result means the draft may be submitted.
func Validate(d domain.ProductDraft) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = msgNameRequired
	}
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = msgDescriptionRequired
	}
	if len(d.Images) == 0 {
		errs["images"] = msgImagesRequired
	}
	if strings.TrimSpace(d.Brand) == "" {
		errs["brand"] = msgBrandRequired
	}
	if strings.TrimSpace(d.Status) == "" {
		errs["status"] = msgStatusRequired
	}
	if len(d.Tags) == 0 {
		errs["tags"] = msgTagsRequired
	}
	if strings.TrimSpace(d.Category) == "" {
		errs["category"] = msgCategoryRequired
	}
	if strings.TrimSpace(d.Code) == "" {
		errs["code"] = msgCodeRequired
	}
	if strings.TrimSpace(d.SKU) == "" {
		errs["sku"] = msgSKURequired
	}
	avail, availOK := parseNumber(d.Available)
	switch {
	case strings.TrimSpace(d.Available) == "":
		errs["available"] = msgQuantityRequired
	case !availOK:
		errs["available"] = msgQuantityNumeric
	case avail < 0:
		errs["available"] = msgQuantityNegative
	}

	price, priceOK := parseNumber(d.Price)
	switch {
	case strings.TrimSpace(d.Price) == "":
		errs["price"] = msgPriceRequired
	case !priceOK:
		errs["price"] = msgPriceNumeric
	}

	// Sale price is optional; when present it must be numeric and strictly
	// below the regular price.
	if strings.TrimSpace(d.PriceSale) != "" {
		sale, saleOK := parseNumber(d.PriceSale)
		switch {
		case !saleOK:
			errs["priceSale"] = msgSaleNumeric
		case priceOK && sale >= price:
			errs["priceSale"] = msgSaleBelowPrice
		}
	}

	return errs
}

func parseNumber(s string) (float64, bool) {
	v, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}
