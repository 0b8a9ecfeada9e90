package hash

import (
	"strings"
	"testing"
)

// TestSanitize verifies invalid characters are replaced with underscore.
func TestSanitize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"orders.prod*eu>region/us", "orders_prod_eu_region_us"},
		{"orders\\eu", "orders_eu"},
		{"orders eu 01", "orders_eu_01"},
		{"valid_name", "valid_name"},
		{"a\tb\nc", "a_b_c"},
		{"q\x00\x01\x1f\x7f01", "q____01"},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestConsumerName_DistinctForCollidingQueues(t *testing.T) {
	// Both sanitize to "orders_eu" but the digest suffix keeps them apart.
	a := ConsumerName("reflow", "orders.eu")
	b := ConsumerName("reflow", "orders/eu")

	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
	if !strings.HasPrefix(a, "reflow-orders_eu-") {
		t.Fatalf("unexpected name format: %q", a)
	}
}

func TestConsumerName_Bounded(t *testing.T) {
	name := ConsumerName("reflow", strings.Repeat("q", 200))
	if len(name) > maxNameLen {
		t.Fatalf("name length %d exceeds cap %d", len(name), maxNameLen)
	}
}

func TestConsumerName_Deterministic(t *testing.T) {
	if ConsumerName("reflow", "orders") != ConsumerName("reflow", "orders") {
		t.Fatal("expected deterministic names for identical input")
	}
}
