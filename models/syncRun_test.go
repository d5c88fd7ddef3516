package models

import "testing"

func TestClampRunLimit(t *testing.T) {
	cases := []struct {
		in       int
		expected int
	}{
		{0, 20},
		{-3, 20},
		{1, 1},
		{50, 50},
		{100, 100},
		{200, 100},
	}
	for _, tc := range cases {
		if got := clampRunLimit(tc.in); got != tc.expected {
			t.Fatalf("clampRunLimit(%d) = %d, expected %d", tc.in, got, tc.expected)
		}
	}
}
