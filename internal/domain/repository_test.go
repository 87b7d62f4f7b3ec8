package domain

import "testing"

func TestPageRequest_Normalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"defaults", PageRequest{}, PageRequest{Page: 0, Size: 20}},
		{"negative page", PageRequest{Page: -3, Size: 10}, PageRequest{Page: 0, Size: 10}},
		{"oversized", PageRequest{Page: 1, Size: 500}, PageRequest{Page: 1, Size: 100}},
		{"valid", PageRequest{Page: 2, Size: 50}, PageRequest{Page: 2, Size: 50}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPageRequest_OffsetLimit(t *testing.T) {
	t.Parallel()

	p := PageRequest{Page: 3, Size: 25}
	if got := p.Offset(); got != 75 {
		t.Fatalf("expected offset 75, got %d", got)
	}
	if got := p.Limit(); got != 25 {
		t.Fatalf("expected limit 25, got %d", got)
	}

	// Ненормализованный запрос не должен давать отрицательное смещение.
	bad := PageRequest{Page: -1, Size: 0}
	if got := bad.Offset(); got != 0 {
		t.Fatalf("expected offset 0 for invalid request, got %d", got)
	}
	if got := bad.Limit(); got != 20 {
		t.Fatalf("expected default limit 20, got %d", got)
	}
}
