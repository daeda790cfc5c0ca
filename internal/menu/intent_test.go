package menu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/callpulse/internal/feature"
)

func TestParseIntent(t *testing.T) {
	cases := []struct {
		in   string
		want Intent
	}{
		{"/start", Start()},
		{"START", Start()},
		{"help", Help()},
		{" back ", Back()},
		{"select:sentiment", Select(feature.Sentiment)},
		{"run:top_sellers", Run(feature.TopSellers, feature.Params{})},
		{"run:top_sellers?top=3", Run(feature.TopSellers, feature.Params{TopN: 3})},
		{"run:manager_type?manager=42", Run(feature.ManagerType, feature.Params{ManagerID: "42"})},
	}
	for _, c := range cases {
		got, err := ParseIntent(c.in)
		if err != nil {
			t.Fatalf("ParseIntent(%q): %v", c.in, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("ParseIntent(%q) mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestParseIntentRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"feature_1",
		// the trailing-character form must never resolve to a feature
		"run_analysis_feature_f1",
		"run:1",
		"select:unknown",
		"select:sentiment?top=2",
		"run:top_sellers?top=zero",
		"run:top_sellers?top=-1",
		"launch:sentiment",
	} {
		if _, err := ParseIntent(in); err == nil {
			t.Errorf("ParseIntent(%q) accepted", in)
		}
	}
}

func TestIntentDataRoundTrip(t *testing.T) {
	for _, in := range []Intent{
		Start(), Help(), Back(),
		Select(feature.SalesPhrases),
		Run(feature.Sentiment, feature.Params{ManagerID: "7 b", TopN: 2}),
	} {
		got, err := ParseIntent(in.Data())
		if err != nil {
			t.Fatalf("ParseIntent(%q): %v", in.Data(), err)
		}
		if diff := cmp.Diff(in, got); diff != "" {
			t.Errorf("round trip of %q (-want +got):\n%s", in.Data(), diff)
		}
	}
}
