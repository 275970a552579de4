package service

import (
    "strings"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/cinemax/internal/config"
)

// MaxSeatsPerBooking bounds the seat count of a single booking.
const MaxSeatsPerBooking = 50

// Quote is the priced form of a seat selection.
type Quote struct {
    // Categories holds the category charged for each seat.  It is nil when
    // the request did not name one category per seat, in which case every
    // seat is charged as adult.
    Categories []string
    Unit       []decimal.Decimal
    Total      decimal.Decimal

    adult decimal.Decimal
}

// Seat returns the category and unit price charged for seat i.
func (q Quote) Seat(i int) (string, decimal.Decimal) {
    if i < len(q.Categories) {
        return q.Categories[i], q.Unit[i]
    }
    return config.CategoryAdult, q.adult
}

// QuotePrice prices seats tickets.  When one category is given per seat
// the total is the sum of their prices; otherwise every seat is charged
// the adult price.  Unknown labels are charged, and recorded, as adult.
func QuotePrice(p config.Pricing, seats int, categories []string) Quote {
    adult := p.Price(config.CategoryAdult)
    q := Quote{Total: decimal.Zero, adult: adult}
    if seats < 1 {
        return q
    }
    if len(categories) != seats {
        q.Total = adult.Mul(decimal.NewFromInt(int64(seats)))
        return q
    }
    q.Categories = make([]string, seats)
    q.Unit = make([]decimal.Decimal, seats)
    for i, raw := range categories {
        cat := config.CategoryAdult
        if c := strings.ToLower(strings.TrimSpace(raw)); p.Known(c) {
            cat = c
        }
        q.Categories[i] = cat
        q.Unit[i] = p.Price(cat)
        q.Total = q.Total.Add(q.Unit[i])
    }
    return q
}

// checkSeatCount rejects seat counts outside 1..MaxSeatsPerBooking.
func checkSeatCount(seats int) error {
    if seats < 1 {
        return invalid("seats must be at least 1")
    }
    if seats > MaxSeatsPerBooking {
        return invalid("seats must be at most %d", MaxSeatsPerBooking)
    }
    return nil
}
