package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/employees", 50, 0},
		{"explicit", "/employees?limit=10&offset=30", 10, 30},
		{"capped at max", "/employees?limit=5000", 200, 0},
		{"garbage ignored", "/employees?limit=abc&offset=-2", 50, 0},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", tc.url, nil)
		p := ParsePagination(r, 50, 200)
		if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
			t.Fatalf("%s: got limit=%d offset=%d, want limit=%d offset=%d",
				tc.name, p.Limit, p.Offset, tc.wantLimit, tc.wantOffset)
		}
	}
}
