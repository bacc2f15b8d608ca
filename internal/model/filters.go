package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type OperationType string

const (
	OperationSale          OperationType = "sale"
	OperationRent          OperationType = "rent"
	OperationTemporaryRent OperationType = "temporary_rent"
)

func (o OperationType) Valid() bool {
	switch o {
	case OperationSale, OperationRent, OperationTemporaryRent:
		return true
	}
	return false
}

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyLand      PropertyType = "land"
	PropertyOffice    PropertyType = "office"
	PropertyShop      PropertyType = "shop"
)

func (p PropertyType) Valid() bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyLand, PropertyOffice, PropertyShop:
		return true
	}
	return false
}

// SearchFilters is the structured form of a property-search query. Every
// recognized option is enumerated here; parsing rejects unknown keys instead
// of silently ignoring them.
type SearchFilters struct {
	OperationTypes []OperationType `json:"operationTypes,omitempty"`
	PriceFrom      int             `json:"priceFrom,omitempty"`
	PriceTo        int             `json:"priceTo,omitempty"`
	PropertyTypes  []PropertyType  `json:"propertyTypes,omitempty"`
	Location       string          `json:"location,omitempty"`
}

// DefaultSearchFilters returns the filters used when the user expressed no
// constraint: every operation and property type, unbounded price.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		OperationTypes: []OperationType{OperationSale, OperationRent, OperationTemporaryRent},
		PriceFrom:      0,
		PriceTo:        0,
	}
}

// ParseSearchFilters decodes raw JSON into SearchFilters, failing on unknown
// keys and invalid enum values.
func ParseSearchFilters(raw []byte) (SearchFilters, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var f SearchFilters
	if err := dec.Decode(&f); err != nil {
		return SearchFilters{}, fmt.Errorf("parse search filters: %w", err)
	}
	if err := f.Validate(); err != nil {
		return SearchFilters{}, err
	}
	return f, nil
}

func (f *SearchFilters) Validate() error {
	for _, op := range f.OperationTypes {
		if !op.Valid() {
			return fmt.Errorf("unknown operation type %q", op)
		}
	}
	for _, pt := range f.PropertyTypes {
		if !pt.Valid() {
			return fmt.Errorf("unknown property type %q", pt)
		}
	}
	if f.PriceFrom < 0 || f.PriceTo < 0 {
		return fmt.Errorf("price bounds must be non-negative")
	}
	if f.PriceFrom > 0 && f.PriceTo > 0 && f.PriceFrom > f.PriceTo {
		return fmt.Errorf("priceFrom %d exceeds priceTo %d", f.PriceFrom, f.PriceTo)
	}
	return nil
}

// FiltersFromContext derives a search query from the preferences gathered in
// a user context.
func FiltersFromContext(c *UserContext) SearchFilters {
	f := DefaultSearchFilters()
	if len(c.Operations) > 0 {
		f.OperationTypes = append([]OperationType(nil), c.Operations...)
	}
	if len(c.PropertyTypes) > 0 {
		f.PropertyTypes = append([]PropertyType(nil), c.PropertyTypes...)
	}
	f.PriceFrom = c.PriceFrom
	f.PriceTo = c.PriceTo
	f.Location = strings.TrimSpace(c.Location)
	return f
}
