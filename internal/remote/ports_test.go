package remote

import (
	"testing"
	"time"

	"viaggi/internal/core"
)

func TestDecodeAccountNewAccount(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "{}", " {} \n"} {
		a, err := DecodeAccount([]byte(in))
		if err != nil || a != nil {
			t.Fatalf("%q: expected nil account, got %v (err=%v)", in, a, err)
		}
	}
}

func TestDecodeAccountInvalid(t *testing.T) {
	if _, err := DecodeAccount([]byte("<html>")); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
}

func TestEncodeDecode(t *testing.T) {
	a := core.DefaultAccount()
	a.Trips = append(a.Trips, core.Trip{
		ID: "t1", Name: "Asia", StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MainCurrency: "EUR", PreferredCurrencies: []string{"EUR"},
	})
	b, err := EncodeAccount(a)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeAccount(b)
	if err != nil || got == nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Trips[0].Name != "Asia" || len(got.Categories) != 8 {
		t.Fatalf("unexpected decoded account %+v", got)
	}
}
