package core

import "testing"

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		1230:  "12.30",
		-4000: "-40.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 7000}
	b := Money{Cents: 5000}
	if got := a.Sub(b); got.Cents != 2000 {
		t.Fatalf("Sub = %d", got.Cents)
	}
	if got := a.Add(b.Neg()); got.Cents != 2000 {
		t.Fatalf("Add(Neg) = %d", got.Cents)
	}
	if !(Money{}).IsZero() {
		t.Fatal("zero money should be zero")
	}
}
