package core

import "testing"

func TestEnsureDefaultCategories(t *testing.T) {
	custom := Category{ID: "custom-cat-1", Name: "Musei", Icon: "🏛️"}

	if got := EnsureDefaultCategories(nil); len(got) != 8 {
		t.Fatalf("empty list should become defaults, got %d", len(got))
	}

	full := append(DefaultCategories(), custom)
	if got := EnsureDefaultCategories(full); len(got) != 9 || got[8] != custom {
		t.Fatalf("complete list should be kept as is: %v", got)
	}

	// a missing default is restored and customs are appended after the defaults
	partial := []Category{custom, {ID: "cat-1", Name: "Cibo", Icon: "🍔"}}
	got := EnsureDefaultCategories(partial)
	if len(got) != 9 {
		t.Fatalf("expected 9 categories, got %d", len(got))
	}
	if got[7].ID != FallbackCategoryID || got[8].ID != custom.ID {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestDefaultCategoryLookup(t *testing.T) {
	if !IsDefaultCategory("cat-8") || IsDefaultCategory("custom-cat-1") {
		t.Fatalf("default category detection broken")
	}
	if c, ok := CurrencyForCountry("Giappone"); !ok || c != "JPY" {
		t.Fatalf("expected JPY, got %q", c)
	}
	if c, ok := CountryForCurrency("THB"); !ok || c != "Thailandia" {
		t.Fatalf("expected Thailandia, got %q", c)
	}
	if _, ok := CountryForCurrency("CHF"); ok {
		t.Fatalf("CHF should not map to a country")
	}
	if len(Countries()) != len(AllCurrencies) {
		t.Fatalf("every currency has exactly one country")
	}
	a := DefaultAccount()
	if a.Trips == nil || len(a.Trips) != 0 || len(a.Categories) != 8 {
		t.Fatalf("unexpected default account %+v", a)
	}
}
