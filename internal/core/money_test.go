package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1235, true},
		{"12.346", 1235, true},
		{"1250", 125000, true},
		{"0.01", 1, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %d,%v want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestCentsFromFloat(t *testing.T) {
	if got := CentsFromFloat(1250); got != 125000 {
		t.Fatalf("got %d", got)
	}
	if got := CentsFromFloat(12.345); got != 1235 {
		t.Fatalf("got %d", got)
	}
	if got := CentsFromFloat(-3.2); got != 320 {
		t.Fatalf("got %d", got)
	}
}

func TestMoneyDecimal(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{500000, "5000.00"},
		{1, "0.01"},
		{1234, "12.34"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Decimal(); got != tc.want {
			t.Fatalf("%d: got %q want %q", tc.cents, got, tc.want)
		}
	}
}
