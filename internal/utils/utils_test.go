package utils

import (
	"strings"
	"testing"
	"time"
)

func TestJobCursor_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cur, err := EncodeJobCursor(now, "abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeJobCursor(cur)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.UpdatedAt.Equal(now) || got.ID != "abc" {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	for _, in := range []string{"", "!!!", "e30"} {
		if _, err := DecodeJobCursor(in); err != ErrInvalidCursor {
			t.Fatalf("DecodeJobCursor(%q) = %v, want ErrInvalidCursor", in, err)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, perPage string
		want          Page
		ok            bool
	}{
		{"", "", Page{1, 20}, true},
		{"3", "50", Page{3, 50}, true},
		{"0", "", Page{}, false},
		{"", "101", Page{}, false},
		{"x", "", Page{}, false},
	}

	for _, tt := range tests {
		got, ok := ParsePage(tt.page, tt.perPage)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParsePage(%q,%q) = %+v,%v want %+v,%v", tt.page, tt.perPage, got, ok, tt.want, tt.ok)
		}
	}

	if (Page{Page: 3, PerPage: 20}).Offset() != 40 {
		t.Fatalf("unexpected offset")
	}
}

func TestTotalPages(t *testing.T) {
	if TotalPages(0, 20) != 0 || TotalPages(1, 20) != 1 || TotalPages(41, 20) != 3 {
		t.Fatalf("unexpected total pages")
	}
}

func TestBuildRFPListCacheKey_Normalises(t *testing.T) {
	a := BuildRFPListCacheKey(1, 20, " Software ", "PUBLISHED")
	b := BuildRFPListCacheKey(1, 20, "software", "published")
	if a != b {
		t.Fatalf("keys should match: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, RFPListCachePrefix) {
		t.Fatalf("missing prefix: %s", a)
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f") {
		t.Fatalf("expected valid uuid")
	}
	if IsUUID("nope") {
		t.Fatalf("expected invalid uuid")
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated[int](nil, 41, Page{Page: 2, PerPage: 20})

	if p.Items == nil || len(p.Items) != 0 {
		t.Fatalf("nil items must become an empty slice")
	}
	if p.TotalPages != 3 || p.Page != 2 || p.PerPage != 20 || p.Total != 41 {
		t.Fatalf("unexpected envelope %+v", p)
	}
}
