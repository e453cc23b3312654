package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuote(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name      string
		words     int
		urgency   string
		level     string
		pages     int
		perPage   string
		total     string
		defaulted int
	}{
		{"undergraduate week", 1000, "7-days", "undergraduate", 4, "17.28", "69.12", 0},
		{"partial page rounds up", 251, "14-days", "high-school", 2, "12", "24", 0},
		{"phd six hours", 250, "6-hours", "phd", 1, "64.8", "64.8", 0},
		{"masters ten days", 500, "10-days", "masters", 2, "19.8", "39.6", 0},
		{"unknown urgency", 250, "yesterday", "masters", 1, "18", "18", 1},
		{"unknown both", 250, "", "", 1, "12", "12", 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := engine.Quote(tc.words, tc.urgency, tc.level)
			if q.Pages != tc.pages {
				t.Fatalf("expected %d pages, got %d", tc.pages, q.Pages)
			}
			if !q.PricePerPage.Equal(decimal.RequireFromString(tc.perPage)) {
				t.Fatalf("expected per page %s, got %s", tc.perPage, q.PricePerPage)
			}
			if !q.TotalPrice.Equal(decimal.RequireFromString(tc.total)) {
				t.Fatalf("expected total %s, got %s", tc.total, q.TotalPrice)
			}
			if len(q.Defaulted) != tc.defaulted {
				t.Fatalf("expected %d defaulted keys, got %v", tc.defaulted, q.Defaulted)
			}
		})
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	engine := NewEngine()
	first := engine.Quote(3333, "48-hours", "masters")
	for i := 0; i < 10; i++ {
		next := engine.Quote(3333, "48-hours", "masters")
		if !next.TotalPrice.Equal(first.TotalPrice) || next.Pages != first.Pages {
			t.Fatalf("quote changed between calls: %+v vs %+v", first, next)
		}
	}
}

func TestWithBasePrice(t *testing.T) {
	engine := NewEngine(WithBasePrice(decimal.NewFromInt(10)), WithBasePrice(decimal.Zero))
	q := engine.Quote(250, "14-days", "high-school")
	if !q.TotalPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected base price override, got %s", q.TotalPrice)
	}
}

func TestWithLevelsMergesOverDefaults(t *testing.T) {
	engine := NewEngine(WithLevels(map[string]decimal.Decimal{
		"phd":          decimal.NewFromInt(2),
		"professional": decimal.RequireFromString("2.5"),
		"masters":      decimal.Zero,
	}))

	if q := engine.Quote(250, "14-days", "phd"); !q.TotalPrice.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected overridden phd multiplier, got %s", q.TotalPrice)
	}
	if q := engine.Quote(250, "14-days", "professional"); !q.TotalPrice.Equal(decimal.NewFromInt(30)) || len(q.Defaulted) != 0 {
		t.Fatalf("expected added level to be priced, got %+v", q)
	}
	if q := engine.Quote(250, "14-days", "masters"); !q.TotalPrice.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("non-positive override must keep the default, got %s", q.TotalPrice)
	}
	if !DefaultLevels["phd"].Equal(decimal.RequireFromString("1.8")) {
		t.Fatalf("default table must not be modified")
	}
}

func TestWithUrgencyMultipliers(t *testing.T) {
	engine := NewEngine(WithUrgencyMultipliers(map[string]decimal.Decimal{
		"24-hours": decimal.NewFromInt(4),
		"1-hour":   decimal.NewFromInt(9),
	}))

	if q := engine.Quote(250, "24-hours", "high-school"); !q.TotalPrice.Equal(decimal.NewFromInt(48)) {
		t.Fatalf("expected overridden urgency multiplier, got %s", q.TotalPrice)
	}
	if q := engine.Quote(250, "1-hour", "high-school"); len(q.Defaulted) != 1 || q.Defaulted[0] != "urgency" {
		t.Fatalf("unknown tier keys must not create tiers, got %+v", q)
	}
	if !DefaultUrgency[2].Multiplier.Equal(decimal.RequireFromString("2.0")) {
		t.Fatalf("default tiers must not be modified")
	}
}

func TestPages(t *testing.T) {
	cases := map[int]int{0: 0, -5: 0, 1: 1, 250: 1, 251: 2, 1000: 4}
	for words, want := range cases {
		if got := Pages(words); got != want {
			t.Fatalf("Pages(%d) = %d, want %d", words, got, want)
		}
	}
}

func TestUrgencyFor(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		left time.Duration
		want string
	}{
		{5 * time.Hour, "6-hours"},
		{6 * time.Hour, "6-hours"},
		{20 * time.Hour, "24-hours"},
		{4 * 24 * time.Hour, "5-days"},
		{7 * 24 * time.Hour, "7-days"},
		{30 * 24 * time.Hour, "14-days"},
	}
	for _, tc := range cases {
		if got := engine.UrgencyFor(now.Add(tc.left), now); got != tc.want {
			t.Fatalf("UrgencyFor(+%s) = %s, want %s", tc.left, got, tc.want)
		}
	}
}
