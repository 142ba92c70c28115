package core

import "slices"

// FallbackCategoryID identifies "Varie", which absorbs the expenses of a
// deleted custom category.
const FallbackCategoryID = "cat-8"

// CustomCategoryPrefix prefixes the ids of user-created categories.
const CustomCategoryPrefix = "custom-cat-"

// DefaultCategoryIcon is shown for category names that resolve to nothing.
const DefaultCategoryIcon = "💸"

var defaultCategories = []Category{
	{ID: "cat-1", Name: "Cibo", Icon: "🍔"},
	{ID: "cat-2", Name: "Alloggio", Icon: "🏠"},
	{ID: "cat-3", Name: "Trasporti", Icon: "🚆"},
	{ID: "cat-4", Name: "Attività", Icon: "🏞️"},
	{ID: "cat-5", Name: "Shopping", Icon: "🛍️"},
	{ID: "cat-6", Name: "Visti", Icon: "🛂"},
	{ID: "cat-7", Name: "Assicurazione", Icon: "🛡️"},
	{ID: FallbackCategoryID, Name: "Varie", Icon: "📦"},
}

// DefaultCategories returns a fresh copy of the built-in categories.
func DefaultCategories() []Category {
	return slices.Clone(defaultCategories)
}

// IsDefaultCategory reports whether id belongs to a built-in category.
func IsDefaultCategory(id string) bool {
	for _, c := range defaultCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// DefaultAccount is the snapshot of a brand-new account.
func DefaultAccount() *Account {
	return &Account{
		Trips:      []Trip{},
		Categories: DefaultCategories(),
	}
}

// EnsureDefaultCategories repairs a fetched category list: an empty list
// becomes the defaults, and if any default id is missing the result is the
// defaults followed by the custom categories.
func EnsureDefaultCategories(cats []Category) []Category {
	if len(cats) == 0 {
		return DefaultCategories()
	}
	missing := false
	for _, dc := range defaultCategories {
		if !slices.ContainsFunc(cats, func(c Category) bool { return c.ID == dc.ID }) {
			missing = true
			break
		}
	}
	if !missing {
		return slices.Clone(cats)
	}
	out := DefaultCategories()
	for _, c := range cats {
		if !IsDefaultCategory(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

type countryCurrency struct {
	Country  string
	Currency string
}

var countriesCurrencies = []countryCurrency{
	{"Thailandia", "THB"},
	{"Vietnam", "VND"},
	{"Cambogia", "KHR"},
	{"Laos", "LAK"},
	{"Malesia", "MYR"},
	{"Singapore", "SGD"},
	{"Indonesia", "IDR"},
	{"Filippine", "PHP"},
	{"Giappone", "JPY"},
	{"Corea del Sud", "KRW"},
	{"Cina", "CNY"},
	{"Stati Uniti", "USD"},
	{"Area Euro", "EUR"},
	{"Regno Unito", "GBP"},
}

// AllCurrencies lists the currencies a trip can use.
var AllCurrencies = []string{"EUR", "USD", "GBP", "THB", "VND", "KHR", "LAK", "MYR", "SGD", "IDR", "PHP", "JPY", "KRW", "CNY"}

// CurrencyForCountry returns the currency suggested for a destination.
func CurrencyForCountry(country string) (string, bool) {
	for _, cc := range countriesCurrencies {
		if cc.Country == country {
			return cc.Currency, true
		}
	}
	return "", false
}

// CountryForCurrency returns the first destination using the currency.
func CountryForCurrency(currency string) (string, bool) {
	for _, cc := range countriesCurrencies {
		if cc.Currency == currency {
			return cc.Country, true
		}
	}
	return "", false
}

// Countries lists the known destinations in display order.
func Countries() []string {
	out := make([]string, len(countriesCurrencies))
	for i, cc := range countriesCurrencies {
		out[i] = cc.Country
	}
	return out
}
