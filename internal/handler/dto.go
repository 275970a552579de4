package handler

import (
    "time"

    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

// userDTO is the public profile of a user.  Name fields keep the French
// keys the front end was built with.
type userDTO struct {
    ID         uint64  `json:"id"`
    Email      string  `json:"email"`
    Nom        string  `json:"nom"`
    Prenom     string  `json:"prenom"`
    Sexe       *string `json:"sexe,omitempty"`
    Ville      *string `json:"ville,omitempty"`
    Habitation *string `json:"habitation,omitempty"`
    IsAdmin    bool    `json:"is_admin"`
}

func toUserDTO(u model.User) userDTO {
    return userDTO{
        ID: u.ID, Email: u.Email, Nom: u.LastName, Prenom: u.FirstName,
        Sexe: u.Sex, Ville: u.City, Habitation: u.Housing, IsAdmin: u.IsAdmin,
    }
}

type movieDTO struct {
    ID          uint64   `json:"id"`
    Title       string   `json:"title"`
    Director    string   `json:"director"`
    Cast        []string `json:"cast"`
    Description string   `json:"description"`
    Duration    int      `json:"duration"`
    Rating      string   `json:"ratings"`
    Poster      string   `json:"poster"`
    Trailer     *string  `json:"trailer,omitempty"`
    Color       *string  `json:"color,omitempty"`
    Showtimes   []string `json:"showtimes"`
}

func toMovieDTO(m service.MovieListing) movieDTO {
    cast := m.Cast
    if cast == nil {
        cast = []string{}
    }
    times := m.Showtimes
    if times == nil {
        times = []string{}
    }
    return movieDTO{
        ID: m.ID, Title: m.Title, Director: m.Director, Cast: cast,
        Description: m.Description, Duration: m.Duration, Rating: m.Rating,
        Poster: m.PosterURL, Trailer: m.TrailerURL, Color: m.Color, Showtimes: times,
    }
}

type showtimeDTO struct {
    ID             uint64 `json:"id"`
    MovieID        uint64 `json:"movie_id"`
    FilmTitle      string `json:"film_title"`
    FilmDate       string `json:"film_date"`
    FilmTime       string `json:"film_time"`
    TheatreID      uint64 `json:"theatre_id"`
    TheatreName    string `json:"theatre_name"`
    AvailableSeats int    `json:"available_seats"`
}

func toShowtimeDTO(s model.Showtime) showtimeDTO {
    return showtimeDTO{
        ID: s.ID, MovieID: s.MovieID, FilmTitle: s.MovieTitle,
        FilmDate: s.Date.Format("2006-01-02"), FilmTime: s.Time,
        TheatreID: s.TheatreID, TheatreName: s.TheatreName, AvailableSeats: s.AvailableSeats,
    }
}

type theatreDTO struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    SeatRows    int    `json:"seat_rows"`
    SeatsPerRow int    `json:"seats_per_row"`
    Capacity    int    `json:"capacity"`
}

func toTheatreDTO(t model.Theatre) theatreDTO {
    return theatreDTO{ID: t.ID, Name: t.Name, SeatRows: t.SeatRows, SeatsPerRow: t.SeatsPerRow, Capacity: t.Capacity()}
}

type seatDTO struct {
    Number int  `json:"number"`
    Booked bool `json:"booked"`
}

type seatRowDTO struct {
    Row   string    `json:"row"`
    Seats []seatDTO `json:"seats"`
}

type bookedSeatDTO struct {
    Row      string  `json:"row"`
    Seat     int     `json:"seat"`
    SeatID   string  `json:"seatId"`
    Category string  `json:"category"`
    Price    float64 `json:"price"`
}

type bookingDTO struct {
    ID             uint64          `json:"id"`
    FilmTitle      string          `json:"film_title"`
    FilmDate       string          `json:"film_date"`
    FilmTime       string          `json:"film_time"`
    Seats          int             `json:"seats"`
    SeatCategories []string        `json:"seat_categories"`
    SelectedSeats  []bookedSeatDTO `json:"selected_seats"`
    TotalPrice     float64         `json:"total_price"`
    ShowtimeID     *uint64         `json:"showtime_id"`
    TheatreID      *uint64         `json:"theatre_id"`
    Status         string          `json:"status"`
    PaymentRef     *string         `json:"payment_ref,omitempty"`
    CreatedAt      time.Time       `json:"created_at"`
}

func toBookingDTO(r model.Reservation) bookingDTO {
    cats := r.SeatCategories
    if cats == nil {
        cats = []string{}
    }
    seats := make([]bookedSeatDTO, 0, len(r.Seats))
    for _, s := range r.Seats {
        seats = append(seats, bookedSeatDTO{
            Row: s.Row, Seat: s.Number, SeatID: s.Label(),
            Category: s.Category, Price: s.Price.InexactFloat64(),
        })
    }
    return bookingDTO{
        ID: r.ID, FilmTitle: r.MovieTitle, FilmDate: r.Date, FilmTime: r.Time,
        Seats: r.SeatCount, SeatCategories: cats, SelectedSeats: seats,
        TotalPrice: r.TotalPrice.InexactFloat64(), ShowtimeID: r.ShowtimeID, TheatreID: r.TheatreID,
        Status: r.Status, PaymentRef: r.PaymentRef, CreatedAt: r.CreatedAt,
    }
}
