/*
category_test.go - Tests for commission category matching

Tests for:
- First-match-wins in configured order
- Pack type and price bound filters (including nil price semantics)
- Fixed and percentage amounts
- Stock category catalog behavior
*/
package commission_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hipnotik/commission-engine/commission"
)

func fixedCat(name string, value int64) commission.Category {
	return commission.Category{
		ID:              commission.CategoryID("cat-" + name),
		Name:            name,
		CommissionType:  commission.CommissionFixed,
		CommissionValue: decimal.NewFromInt(value),
		IsActive:        true,
	}
}

func TestMatchCategory_FirstMatchWins(t *testing.T) {
	// GIVEN: Two categories that both admit the sale
	// THEN: The first in configured order is chosen, not the more specific
	broad := fixedCat("broad", 5)
	specific := fixedCat("specific", 25)
	specific.PackTypes = []commission.PackType{commission.PackFibraMovil}

	sale := commission.Sale{PackType: commission.PackFibraMovil}

	got := commission.MatchCategory(sale, []commission.Category{broad, specific})
	if got == nil || got.Name != "broad" {
		t.Fatalf("MatchCategory = %v, want broad (configured order wins)", got)
	}

	got = commission.MatchCategory(sale, []commission.Category{specific, broad})
	if got == nil || got.Name != "specific" {
		t.Fatalf("MatchCategory = %v, want specific after reorder", got)
	}
}

func TestMatchCategory_InactiveSkipped(t *testing.T) {
	inactive := fixedCat("inactive", 25)
	inactive.IsActive = false
	fallback := fixedCat("fallback", 5)

	sale := commission.Sale{PackType: commission.PackSoloFibra}
	got := commission.MatchCategory(sale, []commission.Category{inactive, fallback})
	if got == nil || got.Name != "fallback" {
		t.Fatalf("MatchCategory = %v, want fallback (inactive skipped)", got)
	}
}

func TestMatchCategory_NoMatch(t *testing.T) {
	cat := fixedCat("fibra", 12)
	cat.PackTypes = []commission.PackType{commission.PackSoloFibra}

	sale := commission.Sale{PackType: commission.PackSoloMovil}
	if got := commission.MatchCategory(sale, []commission.Category{cat}); got != nil {
		t.Fatalf("MatchCategory = %v, want nil", got)
	}
}

func TestCategoryMatches_PriceBounds(t *testing.T) {
	cat := fixedCat("mid", 15)
	cat.MinPrice = euros("35")
	cat.MaxPrice = euros("59.99")

	cases := []struct {
		name  string
		price *decimal.Decimal
		want  bool
	}{
		{"inside bounds", euros("45"), true},
		{"exactly min", euros("35"), true},
		{"exactly max", euros("59.99"), true},
		{"below min", euros("34.99"), false},
		{"above max", euros("60"), false},
		{"no price excluded by set min", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sale := commission.Sale{PackPrice: tc.price}
			if got := cat.Matches(sale); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCategoryMatches_UnboundedAcceptsNilPrice(t *testing.T) {
	// Both bounds nil: any price, including none at all.
	cat := fixedCat("any", 5)
	if !cat.Matches(commission.Sale{}) {
		t.Error("category without bounds should admit a sale with no price")
	}
}

func TestCategoryAmount_Fixed(t *testing.T) {
	cat := fixedCat("fibra", 12)
	sale := commission.Sale{PackType: commission.PackSoloFibra, PackPrice: euros("39")}
	if got := cat.Amount(sale); !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Amount = %s, want 12", got)
	}
}

func TestCategoryAmount_Percentage(t *testing.T) {
	cat := commission.Category{
		Name:            "pct",
		CommissionType:  commission.CommissionPercentage,
		CommissionValue: decimal.NewFromInt(10),
		IsActive:        true,
	}
	sale := commission.Sale{PackPrice: euros("59.90")}
	want := decimal.RequireFromString("5.99")
	if got := cat.Amount(sale); !got.Equal(want) {
		t.Errorf("Amount = %s, want %s", got, want)
	}
}

func TestCategoryAmount_PercentageOfNilPriceIsZero(t *testing.T) {
	cat := commission.Category{
		Name:            "pct",
		CommissionType:  commission.CommissionPercentage,
		CommissionValue: decimal.NewFromInt(10),
		IsActive:        true,
	}
	if got := cat.Amount(commission.Sale{}); !got.IsZero() {
		t.Errorf("Amount = %s, want 0 for nil price", got)
	}
}

func TestCategoryClone_FreshIdentityDeepCopy(t *testing.T) {
	src := fixedCat("src", 10)
	src.MinPrice = euros("30")
	src.PackTypes = []commission.PackType{commission.PackSoloFibra}

	cp := src.Clone()
	if cp.ID == src.ID {
		t.Error("Clone should mint a fresh ID")
	}
	*cp.MinPrice = decimal.NewFromInt(99)
	if !src.MinPrice.Equal(decimal.NewFromInt(30)) {
		t.Error("Clone shares MinPrice with the source")
	}
	cp.PackTypes[0] = commission.PackSoloMovil
	if src.PackTypes[0] != commission.PackSoloFibra {
		t.Error("Clone shares PackTypes with the source")
	}
}

func TestDefaultCategories_Catalog(t *testing.T) {
	cats := commission.DefaultCategories()
	if len(cats) != 5 {
		t.Fatalf("len(DefaultCategories) = %d, want 5", len(cats))
	}

	// A bare fiber contract lands in "Fibra Suelta" at its fixed 12 euro.
	sale := commission.Sale{
		PackType:  commission.PackSoloFibra,
		PackPrice: euros("39"),
		Status:    commission.StatusInstalado,
	}
	got := commission.MatchCategory(sale, cats)
	if got == nil || got.Name != "Fibra Suelta" {
		t.Fatalf("MatchCategory = %v, want Fibra Suelta", got)
	}
	if !got.Amount(sale).Equal(decimal.NewFromInt(12)) {
		t.Errorf("Amount = %s, want 12", got.Amount(sale))
	}

	// A premium pack lands in "Venta de Alto Valor" before the mid tier.
	premium := commission.Sale{
		PackType:  commission.PackFibraMovilTV,
		PackPrice: euros("85"),
	}
	got = commission.MatchCategory(premium, cats)
	if got == nil || got.Name != "Venta de Alto Valor" {
		t.Fatalf("MatchCategory = %v, want Venta de Alto Valor", got)
	}
}
