package model

import "time"

// MaxTheatreRows is the largest row count a theatre may have; rows are
// labelled with a single letter A..Z.
const MaxTheatreRows = 26

// Theatre is a screening room with a rectangular seat grid of
// SeatRows rows and SeatsPerRow seats per row.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique display name.
//  SeatRows    – number of rows (1..26).
//  SeatsPerRow – number of seats in every row.
type Theatre struct {
    ID          uint64 // theatres.id
    Name        string // theatres.name
    SeatRows    int    // theatres.seat_rows
    SeatsPerRow int    // theatres.seats_per_row
}

// Capacity returns the number of seats in the theatre.
func (t Theatre) Capacity() int { return t.SeatRows * t.SeatsPerRow }

// Showtime is a scheduled screening of a movie in a theatre.  The
// AvailableSeats counter mirrors capacity minus the seat ledger size and
// is only ever written by the booking transaction.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  MovieTitle     – title of the movie, denormalized for listings.
//  Date           – calendar day (UTC midnight).
//  Time           – time of day as "HH:MM".
//  TheatreID      – theatre hosting the screening.
//  TheatreName    – theatre name, filled by joined queries.
//  AvailableSeats – seats still free.
//  CreatedAt      – creation timestamp.
type Showtime struct {
    ID             uint64    // showtimes.id
    MovieID        uint64    // showtimes.movie_id
    MovieTitle     string    // movies.title
    Date           time.Time // showtimes.show_date
    Time           string    // showtimes.show_time
    TheatreID      uint64    // showtimes.theatre_id
    TheatreName    string    // theatres.name
    AvailableSeats int       // showtimes.available_seats
    CreatedAt      time.Time // showtimes.created_at
}

// SeatState is one cell of a seat map.
type SeatState struct {
    Number int
    Booked bool
}

// SeatRow groups the seats of one row of a seat map.
type SeatRow struct {
    Row   string
    Seats []SeatState
}

// SeatMap is the booked/free view of a showtime's seat grid.
type SeatMap struct {
    Showtime Showtime
    Theatre  Theatre
    Rows     []SeatRow
}
