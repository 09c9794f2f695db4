package handlers

import "testing"

func TestParsePaginationDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatal(err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationExplicit(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "50")
	if err != nil {
		t.Fatal(err)
	}
	if page != 3 || limit != 50 {
		t.Fatalf("expected 3/50, got %d/%d", page, limit)
	}
}

func TestParsePaginationRejectsBadValues(t *testing.T) {
	cases := []struct{ page, limit string }{
		{"0", "20"},
		{"-1", "20"},
		{"abc", "20"},
		{"1", "0"},
		{"1", "-5"},
		{"1", "xyz"},
	}
	for _, tc := range cases {
		if _, _, err := parsePaginationParams(tc.page, tc.limit); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tc.page, tc.limit)
		}
	}
}
