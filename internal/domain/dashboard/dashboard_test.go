package dashboard

import "testing"

func TestFromCounts(t *testing.T) {
	cases := []struct {
		name string
		in   Counts
		want float64
	}{
		{"no finished rfps", Counts{TotalRFPs: 3}, 0},
		{"all awarded", Counts{TotalRFPs: 2, Awarded: 2}, 100},
		{"one of three", Counts{TotalRFPs: 5, Awarded: 1, Closed: 1, Cancelled: 1}, 33.33},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromCounts(tc.in)
			if got.SuccessRate != tc.want {
				t.Fatalf("success rate = %v, want %v", got.SuccessRate, tc.want)
			}
			if got.TotalRFPs != tc.in.TotalRFPs {
				t.Fatalf("total rfps = %d, want %d", got.TotalRFPs, tc.in.TotalRFPs)
			}
		})
	}
}
