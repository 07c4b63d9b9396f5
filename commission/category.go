/*
category.go - Commission category matching

PURPOSE:
  A Category is a priced bucket (fixed euro amount or percentage of pack
  price) that a qualifying sale falls into. Matching walks the configured
  list IN ORDER and returns the first category whose filters admit the
  sale. Configuration order is the explicit, admin-controlled tie-break;
  there is no "most specific wins" rule.

FILTERS (all must pass):
  1. is_active
  2. pack_types: empty = applies to all; otherwise must contain the
     sale's pack type
  3. price bounds: a set MinPrice excludes sales with no price or a price
     below it; a set MaxPrice excludes prices above it; both nil accepts
     any price including none

AMOUNT:
  fixed      -> CommissionValue verbatim
  percentage -> CommissionValue/100 * PackPrice, 0 when the sale has no
                price

SEE ALSO:
  - config.go: Write-time validation of category definitions
  - resolve.go: Decides WHICH sales get matched at all
*/
package commission

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY
// =============================================================================

// CommissionType distinguishes fixed euro amounts from price percentages.
type CommissionType string

const (
	CommissionFixed      CommissionType = "fixed"
	CommissionPercentage CommissionType = "percentage"
)

// Category is one commission bucket within a month's configuration.
// Nil bounds mean unbounded; an empty PackTypes list means "all pack types".
// The json tags are the wire and storage encoding both; the category shape
// is identical everywhere it travels.
type Category struct {
	ID              CategoryID       `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	CommissionType  CommissionType   `json:"commission_type"`
	CommissionValue decimal.Decimal  `json:"commission_value"`
	IsActive        bool             `json:"is_active"`
	MinPrice        *decimal.Decimal `json:"min_price"`
	MaxPrice        *decimal.Decimal `json:"max_price"`
	PackTypes       []PackType       `json:"pack_types"`
}

// Matches reports whether this category admits the sale.
func (c Category) Matches(s Sale) bool {
	if !c.IsActive {
		return false
	}
	if len(c.PackTypes) > 0 && !containsPackType(c.PackTypes, s.PackType) {
		return false
	}
	if c.MinPrice != nil {
		if s.PackPrice == nil || s.PackPrice.LessThan(*c.MinPrice) {
			return false
		}
	}
	if c.MaxPrice != nil {
		if s.PackPrice == nil || s.PackPrice.GreaterThan(*c.MaxPrice) {
			return false
		}
	}
	return true
}

// Amount computes the commission this category pays for the sale. Full
// decimal precision; rounding happens only at presentation.
func (c Category) Amount(s Sale) decimal.Decimal {
	switch c.CommissionType {
	case CommissionPercentage:
		if s.PackPrice == nil {
			return decimal.Zero
		}
		return c.CommissionValue.Div(decimal.NewFromInt(100)).Mul(*s.PackPrice)
	default:
		return c.CommissionValue
	}
}

// Clone returns a deep copy of the category with a FRESH identity. Used by
// config duplication so the copy can diverge from the source month.
func (c Category) Clone() Category {
	out := c
	out.ID = CategoryID(uuid.NewString())
	if c.MinPrice != nil {
		v := *c.MinPrice
		out.MinPrice = &v
	}
	if c.MaxPrice != nil {
		v := *c.MaxPrice
		out.MaxPrice = &v
	}
	out.PackTypes = append([]PackType(nil), c.PackTypes...)
	return out
}

// MatchCategory returns the first category in list order that admits the
// sale, or nil when none does. Deterministic: same sale, same list, same
// order, same result.
func MatchCategory(s Sale, categories []Category) *Category {
	for i := range categories {
		if categories[i].Matches(s) {
			return &categories[i]
		}
	}
	return nil
}

func containsPackType(types []PackType, p PackType) bool {
	for _, t := range types {
		if t == p {
			return true
		}
	}
	return false
}

// =============================================================================
// DEFAULT CATEGORIES - The stock VEDA catalog admins start from
// =============================================================================

// DefaultCategories returns the five stock categories the stand ships with.
// Admins typically load these and then tune values per month.
func DefaultCategories() []Category {
	money := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}
	return []Category{
		{
			ID:              CategoryID(uuid.NewString()),
			Name:            "Venta de Alto Valor",
			Description:     "Packs premium con fibra + móvil de alta gama",
			CommissionType:  CommissionFixed,
			CommissionValue: decimal.NewFromInt(25),
			IsActive:        true,
			MinPrice:        money("60"),
			PackTypes:       []PackType{PackFibraMovil, PackFibraMovilTV},
		},
		{
			ID:              CategoryID(uuid.NewString()),
			Name:            "Venta de Valor Medio",
			Description:     "Packs combinados estándar",
			CommissionType:  CommissionFixed,
			CommissionValue: decimal.NewFromInt(15),
			IsActive:        true,
			MinPrice:        money("35"),
			MaxPrice:        money("59.99"),
			PackTypes:       []PackType{PackFibraMovil, PackFibraMovilTV},
		},
		{
			ID:              CategoryID(uuid.NewString()),
			Name:            "Fibra Suelta",
			Description:     "Solo contratación de fibra",
			CommissionType:  CommissionFixed,
			CommissionValue: decimal.NewFromInt(12),
			IsActive:        true,
			PackTypes:       []PackType{PackSoloFibra},
		},
		{
			ID:              CategoryID(uuid.NewString()),
			Name:            "Móvil Suelto",
			Description:     "Solo contratación de línea móvil",
			CommissionType:  CommissionFixed,
			CommissionValue: decimal.NewFromInt(8),
			IsActive:        true,
			PackTypes:       []PackType{PackSoloMovil},
		},
		{
			ID:              CategoryID(uuid.NewString()),
			Name:            "Venta de Bajo Valor",
			Description:     "Productos con comisión reducida",
			CommissionType:  CommissionFixed,
			CommissionValue: decimal.NewFromInt(5),
			IsActive:        true,
			MinPrice:        money("0"),
			MaxPrice:        money("34.99"),
		},
	}
}
