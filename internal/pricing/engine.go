package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// WordsPerPage is the page size used to derive pages from a word count.
const WordsPerPage = 250

// DefaultBasePrice is the price of one high-school page with a two-week deadline.
var DefaultBasePrice = decimal.NewFromInt(12)

// Tier ties an urgency key to the longest deadline it covers.
type Tier struct {
	Key        string
	Within     time.Duration
	Multiplier decimal.Decimal
}

// DefaultUrgency lists urgency tiers from tightest to loosest.
var DefaultUrgency = []Tier{
	{Key: "6-hours", Within: 6 * time.Hour, Multiplier: decimal.RequireFromString("3.0")},
	{Key: "12-hours", Within: 12 * time.Hour, Multiplier: decimal.RequireFromString("2.5")},
	{Key: "24-hours", Within: 24 * time.Hour, Multiplier: decimal.RequireFromString("2.0")},
	{Key: "48-hours", Within: 48 * time.Hour, Multiplier: decimal.RequireFromString("1.8")},
	{Key: "3-days", Within: 3 * 24 * time.Hour, Multiplier: decimal.RequireFromString("1.5")},
	{Key: "5-days", Within: 5 * 24 * time.Hour, Multiplier: decimal.RequireFromString("1.3")},
	{Key: "7-days", Within: 7 * 24 * time.Hour, Multiplier: decimal.RequireFromString("1.2")},
	{Key: "10-days", Within: 10 * 24 * time.Hour, Multiplier: decimal.RequireFromString("1.1")},
	{Key: "14-days", Within: 14 * 24 * time.Hour, Multiplier: decimal.RequireFromString("1.0")},
}

// DefaultLevels maps academic levels to price multipliers.
var DefaultLevels = map[string]decimal.Decimal{
	"high-school":   decimal.RequireFromString("1.0"),
	"undergraduate": decimal.RequireFromString("1.2"),
	"masters":       decimal.RequireFromString("1.5"),
	"phd":           decimal.RequireFromString("1.8"),
}

// Quote is the priced result for an order.
type Quote struct {
	Pages        int
	PricePerPage decimal.Decimal
	TotalPrice   decimal.Decimal
	// Defaulted names the inputs that were not recognised and priced with a 1.0 multiplier.
	Defaulted []string
}

// Engine computes order prices. It is a pure function of its inputs and tables.
type Engine struct {
	base    decimal.Decimal
	urgency []Tier
	levels  map[string]decimal.Decimal
}

// Option customises the engine.
type Option func(*Engine)

// WithBasePrice overrides the base page price.
func WithBasePrice(base decimal.Decimal) Option {
	return func(e *Engine) {
		if base.IsPositive() {
			e.base = base
		}
	}
}

// WithUrgencyMultipliers replaces the multiplier of existing urgency tiers by key.
// Keys that name no tier are ignored.
func WithUrgencyMultipliers(multipliers map[string]decimal.Decimal) Option {
	return func(e *Engine) {
		if len(multipliers) == 0 {
			return
		}
		tiers := append([]Tier(nil), e.urgency...)
		for i := range tiers {
			if m, ok := multipliers[tiers[i].Key]; ok && m.IsPositive() {
				tiers[i].Multiplier = m
			}
		}
		e.urgency = tiers
	}
}

// WithLevels merges academic level multipliers over the defaults, adding new levels.
func WithLevels(levels map[string]decimal.Decimal) Option {
	return func(e *Engine) {
		if len(levels) == 0 {
			return
		}
		merged := make(map[string]decimal.Decimal, len(e.levels)+len(levels))
		for k, v := range e.levels {
			merged[k] = v
		}
		for k, v := range levels {
			if v.IsPositive() {
				merged[k] = v
			}
		}
		e.levels = merged
	}
}

// NewEngine constructs an engine with default tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		base:    DefaultBasePrice,
		urgency: DefaultUrgency,
		levels:  DefaultLevels,
	}
	for _, opt := range opts {
		opt(e)
	}
	tiers := append([]Tier(nil), e.urgency...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Within < tiers[j].Within })
	e.urgency = tiers
	return e
}

// Pages converts a word count to billable pages.
func Pages(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return (wordCount + WordsPerPage - 1) / WordsPerPage
}

// Quote prices an order. Unknown urgency or level keys use a 1.0 multiplier.
func (e *Engine) Quote(wordCount int, urgency, level string) Quote {
	var defaulted []string

	urgencyMul, ok := e.urgencyMultiplier(urgency)
	if !ok {
		defaulted = append(defaulted, "urgency")
	}
	levelMul, ok := e.levels[level]
	if !ok {
		levelMul = decimal.NewFromInt(1)
		defaulted = append(defaulted, "academic_level")
	}

	pages := Pages(wordCount)
	perPage := e.base.Mul(levelMul).Mul(urgencyMul).Round(2)
	total := perPage.Mul(decimal.NewFromInt(int64(pages))).Round(2)

	return Quote{
		Pages:        pages,
		PricePerPage: perPage,
		TotalPrice:   total,
		Defaulted:    defaulted,
	}
}

// UrgencyFor picks the tightest tier whose window covers the time left until the deadline.
// Deadlines beyond every tier fall into the loosest one.
func (e *Engine) UrgencyFor(deadline, now time.Time) string {
	left := deadline.Sub(now)
	for _, tier := range e.urgency {
		if left <= tier.Within {
			return tier.Key
		}
	}
	return e.urgency[len(e.urgency)-1].Key
}

func (e *Engine) urgencyMultiplier(key string) (decimal.Decimal, bool) {
	for _, tier := range e.urgency {
		if tier.Key == key {
			return tier.Multiplier, true
		}
	}
	return decimal.NewFromInt(1), false
}
