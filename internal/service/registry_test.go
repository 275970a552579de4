package service

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestShowtimesOnDateOrdering(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    f.db.addShowtime(f.other.ID, f.salle2.ID, "2025-12-04", "15:30")
    f.db.addShowtime(f.other.ID, f.salle2.ID, "2025-12-04", "20:00")
    f.db.addShowtime(f.other.ID, f.salle2.ID, "2025-12-05", "11:00")

    list, err := f.registry.ShowtimesOnDate(ctx, "2025-12-04")
    require.NoError(t, err)
    require.Len(t, list, 3)
    assert.Equal(t, "15:30", list[0].Time)
    assert.Equal(t, "20:00", list[1].Time)
    assert.Equal(t, f.salle1.ID, list[1].TheatreID)
    assert.Equal(t, f.salle2.ID, list[2].TheatreID)

    list, err = f.registry.ShowtimesOnDate(ctx, "2025-12-25")
    require.NoError(t, err)
    assert.Empty(t, list)

    _, err = f.registry.ShowtimesOnDate(ctx, "04-12-2025")
    assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddShowtime(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()

    st, err := f.registry.AddShowtime(ctx, ShowtimeInput{MovieTitle: f.other.Title, Date: "2025-12-07", Time: "9:45", TheatreID: f.salle2.ID})
    require.NoError(t, err)
    assert.NotZero(t, st.ID)
    assert.Equal(t, "09:45", st.Time)
    assert.Equal(t, f.salle2.Capacity(), st.AvailableSeats)

    _, err = f.registry.AddShowtime(ctx, ShowtimeInput{MovieTitle: f.film.Title, Date: "2025-12-07", Time: "09:45", TheatreID: f.salle2.ID})
    assert.ErrorIs(t, err, ErrDuplicateShowtime)
    assert.Equal(t, KindConflict, KindOf(err))

    _, err = f.registry.AddShowtime(ctx, ShowtimeInput{MovieTitle: "Unknown", Date: "2025-12-07", Time: "09:45", TheatreID: f.salle2.ID})
    assert.ErrorIs(t, err, ErrMovieNotFound)

    _, err = f.registry.AddShowtime(ctx, ShowtimeInput{MovieTitle: f.film.Title, Date: "2025-12-07", Time: "09:45", TheatreID: 999})
    assert.ErrorIs(t, err, ErrTheatreNotFound)

    _, err = f.registry.AddShowtime(ctx, ShowtimeInput{Date: "2025-12-07"})
    assert.ErrorIs(t, err, ErrMissingField)
    assert.Contains(t, err.Error(), "film_title, film_time, theatre_id")
}

func TestListTheatres(t *testing.T) {
    f := newFixture(t)
    list, err := f.registry.ListTheatres(context.Background())
    require.NoError(t, err)
    require.Len(t, list, 2)
    assert.Equal(t, "Salle 1", list[0].Name)
    assert.Equal(t, 140, list[1].Capacity())
}

func TestSeatMap(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    uid := f.register(t, "map@cinema.com")

    _, err := f.bookings.CreateBooking(ctx, uid, f.seatRequest(SeatSelection{Row: "A", Seat: 1}, SeatSelection{Row: "H", Seat: 12}))
    require.NoError(t, err)

    sm, err := f.registry.SeatMap(ctx, f.show.ID)
    require.NoError(t, err)
    assert.Equal(t, f.film.Title, sm.Showtime.MovieTitle)
    assert.Equal(t, f.salle1.Capacity()-2, sm.Showtime.AvailableSeats)
    require.Len(t, sm.Rows, 8)
    assert.Equal(t, "A", sm.Rows[0].Row)
    assert.Equal(t, "H", sm.Rows[7].Row)

    booked := 0
    for _, row := range sm.Rows {
        require.Len(t, row.Seats, 12)
        for i, seat := range row.Seats {
            assert.Equal(t, i+1, seat.Number)
            if seat.Booked {
                booked++
            }
        }
    }
    assert.Equal(t, 2, booked)
    assert.True(t, sm.Rows[0].Seats[0].Booked)
    assert.True(t, sm.Rows[7].Seats[11].Booked)
    assert.False(t, sm.Rows[0].Seats[1].Booked)

    _, err = f.registry.SeatMap(ctx, 999)
    assert.ErrorIs(t, err, ErrShowtimeNotFound)
}
