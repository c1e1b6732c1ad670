package pricing

import "testing"

func TestSubtotal(t *testing.T) {
	cases := []struct {
		name  string
		items []Item
		want  Money
	}{
		{"empty", nil, 0},
		{"single", []Item{{Qty: 2, UnitPrice: 15000}}, 30000},
		{"multiple", []Item{{Qty: 1, UnitPrice: 9999}, {Qty: 3, UnitPrice: 100}}, 10299},
		{"skips non-positive qty", []Item{{Qty: 0, UnitPrice: 500}, {Qty: -2, UnitPrice: 500}, {Qty: 1, UnitPrice: 500}}, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Subtotal(tc.items); got != tc.want {
				t.Fatalf("Subtotal() = %d, want %d", got, tc.want)
			}
		})
	}
}
