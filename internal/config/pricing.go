package config

import (
    "fmt"
    "os"
    "sort"
    "strings"

    "github.com/shopspring/decimal"
)

// Price categories understood by the booking flow.
const (
    CategoryAdult   = "adult"
    CategoryChild   = "child"
    CategorySenior  = "senior"
    CategoryStudent = "student"
)

// Pricing is the immutable ticket price table.  It is built once at
// startup and passed by value, so callers can never mutate a shared copy.
type Pricing struct {
    prices map[string]decimal.Decimal
}

// DefaultPricing returns the stock price table (adult 9, child 6,
// senior 7, student 7.5).
func DefaultPricing() Pricing {
    return Pricing{prices: map[string]decimal.Decimal{
        CategoryAdult:   decimal.RequireFromString("9.00"),
        CategoryChild:   decimal.RequireFromString("6.00"),
        CategorySenior:  decimal.RequireFromString("7.00"),
        CategoryStudent: decimal.RequireFromString("7.50"),
    }}
}

// NewPricing builds a price table from explicit values.  An adult price
// is required because it is the fallback for unknown categories.
func NewPricing(prices map[string]decimal.Decimal) (Pricing, error) {
    out := make(map[string]decimal.Decimal, len(prices))
    for k, v := range prices {
        if v.IsNegative() {
            return Pricing{}, fmt.Errorf("price for %q is negative", k)
        }
        out[strings.ToLower(strings.TrimSpace(k))] = v.Round(2)
    }
    if _, ok := out[CategoryAdult]; !ok {
        return Pricing{}, fmt.Errorf("missing %q price", CategoryAdult)
    }
    return Pricing{prices: out}, nil
}

// LoadPricing overlays PRICE_ADULT, PRICE_CHILD, PRICE_SENIOR and
// PRICE_STUDENT on the default table.
func LoadPricing() (Pricing, error) {
    base := DefaultPricing()
    prices := make(map[string]decimal.Decimal, len(base.prices))
    for k, v := range base.prices {
        prices[k] = v
        key := "PRICE_" + strings.ToUpper(k)
        s := os.Getenv(key)
        if s == "" {
            continue
        }
        d, err := decimal.NewFromString(s)
        if err != nil {
            return Pricing{}, fmt.Errorf("%s: %w", key, err)
        }
        prices[k] = d
    }
    return NewPricing(prices)
}

// Price returns the unit price of a category.  Unknown or empty
// categories are charged the adult price.
func (p Pricing) Price(category string) decimal.Decimal {
    if v, ok := p.prices[strings.ToLower(strings.TrimSpace(category))]; ok {
        return v
    }
    return p.prices[CategoryAdult]
}

// Known reports whether category has its own entry in the table.
func (p Pricing) Known(category string) bool {
    _, ok := p.prices[strings.ToLower(strings.TrimSpace(category))]
    return ok
}

// Categories lists the categories in alphabetical order.
func (p Pricing) Categories() []string {
    out := make([]string, 0, len(p.prices))
    for k := range p.prices {
        out = append(out, k)
    }
    sort.Strings(out)
    return out
}

// Table returns a copy of the price table.
func (p Pricing) Table() map[string]decimal.Decimal {
    out := make(map[string]decimal.Decimal, len(p.prices))
    for k, v := range p.prices {
        out[k] = v
    }
    return out
}
