package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,250.50", "1250.5", true},
		{" 2.50 ", "2.5", true},
		{"0.01", "0.01", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"1e3", "", false},
		{"1E2000000000", "", false},
		{"0.000000001", "", false},
		{"1000000000000000", "", false},
		{"999999999999999.99", "999999999999999.99", true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(dec(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestEntryValidate_AmountBounds(t *testing.T) {
	for _, amount := range []string{"1e2000000000", "1e-20", "1000000000000000"} {
		e := Entry{ID: "x", Amount: dec(amount), Description: "Rent", Date: NewDate(2024, 3, 1)}
		if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %s: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if code, err := NormalizeCurrency(" inr "); err != nil || code != "INR" {
		t.Fatalf("expected INR, got %q (%v)", code, err)
	}
	if _, err := NormalizeCurrency("BTC"); err == nil {
		t.Fatalf("expected error for unsupported currency")
	}
}
