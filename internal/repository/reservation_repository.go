package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/goccy/go-json"

    "github.com/iliyamo/cinemax/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and the seat
// ledger rows they own.  Every operation that touches the ledger runs in
// one transaction holding a row lock on the showtime, and finishes by
// rewriting the showtime's available_seats counter from the ledger, so
// counter == capacity - count(ledger rows) holds after every commit.  All
// timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, movie_title, show_date, show_time, seat_count, total_price,
                            showtime_id, theatre_id, seat_categories, status, payment_ref, created_at, updated_at`

func scanReservation(s rowScanner) (model.Reservation, error) {
    var (
        r          model.Reservation
        date       time.Time
        showtimeID sql.NullInt64
        theatreID  sql.NullInt64
        categories []byte
        paymentRef sql.NullString
    )
    err := s.Scan(&r.ID, &r.UserID, &r.MovieTitle, &date, &r.Time, &r.SeatCount, &r.TotalPrice,
        &showtimeID, &theatreID, &categories, &r.Status, &paymentRef, &r.CreatedAt, &r.UpdatedAt)
    if err != nil {
        return r, err
    }
    r.Date = date.Format("2006-01-02")
    if showtimeID.Valid {
        v := uint64(showtimeID.Int64)
        r.ShowtimeID = &v
    }
    if theatreID.Valid {
        v := uint64(theatreID.Int64)
        r.TheatreID = &v
    }
    r.SeatCategories = []string{}
    if len(categories) > 0 {
        if err := json.Unmarshal(categories, &r.SeatCategories); err != nil {
            return r, fmt.Errorf("decode categories of reservation %d: %w", r.ID, err)
        }
    }
    if paymentRef.Valid {
        v := paymentRef.String
        r.PaymentRef = &v
    }
    return r, nil
}

func encodeCategories(c []string) ([]byte, error) {
    if c == nil {
        c = []string{}
    }
    return json.Marshal(c)
}

// showtimeLock is the state read while holding the showtime row lock.
type showtimeLock struct {
    TheatreID   uint64
    SeatRows    int
    SeatsPerRow int
    MovieTitle  string
    Date        time.Time
    Time        string
}

// lockShowtimeTx locks the showtime row for the rest of tx.  Only the
// showtime row is locked; the joined theatre and movie rows are read
// without locks.
func lockShowtimeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) (showtimeLock, error) {
    const q = `SELECT s.theatre_id, t.seat_rows, t.seats_per_row, m.title, s.show_date, s.show_time
               FROM showtimes s
               JOIN theatres t ON t.id = s.theatre_id
               JOIN movies m ON m.id = s.movie_id
               WHERE s.id = ?
               FOR UPDATE OF s`
    var l showtimeLock
    err := tx.QueryRowContext(ctx, q, showtimeID).Scan(&l.TheatreID, &l.SeatRows, &l.SeatsPerRow,
        &l.MovieTitle, &l.Date, &l.Time)
    if errors.Is(err, sql.ErrNoRows) {
        return l, ErrShowtimeNotFound
    }
    return l, err
}

// recountTx rewrites the available_seats counter from the ledger.
func recountTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) error {
    const q = `UPDATE showtimes s
               JOIN theatres t ON t.id = s.theatre_id
               SET s.available_seats = t.seat_rows * t.seats_per_row -
                   (SELECT COUNT(*) FROM seat_bookings b WHERE b.showtime_id = s.id)
               WHERE s.id = ?`
    _, err := tx.ExecContext(ctx, q, showtimeID)
    return err
}

// takenSeatsTx returns the subset of seats already in the ledger.
func takenSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seats []model.SeatBooking) ([]model.SeatRef, error) {
    if len(seats) == 0 {
        return nil, nil
    }
    query := `SELECT row_letter, seat_number FROM seat_bookings
              WHERE showtime_id = ? AND (row_letter, seat_number) IN (`
    args := make([]any, 0, 1+len(seats)*2)
    args = append(args, showtimeID)
    for i, s := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, s.Row, s.Number)
    }
    query += ") ORDER BY row_letter, seat_number"
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var taken []model.SeatRef
    for rows.Next() {
        var ref model.SeatRef
        if err := rows.Scan(&ref.Row, &ref.Number); err != nil {
            return nil, err
        }
        taken = append(taken, ref)
    }
    return taken, rows.Err()
}

func insertReservationTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) (uint64, error) {
    cats, err := encodeCategories(res.SeatCategories)
    if err != nil {
        return 0, err
    }
    status := res.Status
    if status == "" {
        status = model.StatusPending
    }
    const q = `INSERT INTO reservations (user_id, movie_title, show_date, show_time, seat_count, total_price,
                                         showtime_id, theatre_id, seat_categories, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, res.UserID, res.MovieTitle, res.Date, res.Time, res.SeatCount,
        res.TotalPrice, res.ShowtimeID, res.TheatreID, cats, status)
    if err != nil {
        return 0, err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// insertSeatsTx writes the ledger rows of a reservation in one statement.
// A duplicate key means a concurrent writer slipped past the lock and is
// reported as a SeatTakenError.
func insertSeatsTx(ctx context.Context, tx *sql.Tx, seats []model.SeatBooking) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO seat_bookings (reservation_id, theatre_id, showtime_id, row_letter, seat_number, category, price) VALUES `
    args := make([]any, 0, len(seats)*7)
    for i, s := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, s.ReservationID, s.TheatreID, s.ShowtimeID, s.Row, s.Number, s.Category, s.Price)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        if isDuplicate(err) {
            refs := make([]model.SeatRef, 0, len(seats))
            for _, s := range seats {
                refs = append(refs, model.SeatRef{Row: s.Row, Number: s.Number})
            }
            return &SeatTakenError{Seats: refs}
        }
        return err
    }
    return nil
}

func getReservationTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    res, err := scanReservation(tx.QueryRowContext(ctx,
        "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    seats, err := listSeatsByReservations(ctx, tx, []uint64{id})
    if err != nil {
        return nil, err
    }
    res.Seats = seats[id]
    return &res, nil
}

// CreatePlain inserts a reservation without seat detail.  On success the
// stored row is copied back into res.
func (r *ReservationRepo) CreatePlain(ctx context.Context, res *model.Reservation) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    id, err := insertReservationTx(ctx, tx, res)
    if err != nil {
        return err
    }
    stored, err := getReservationTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    *res = *stored
    return nil
}

// CreateWithSeats books res.Seats for *res.ShowtimeID atomically.  Under
// the showtime lock it checks the theatre and the grid, rejects seats that
// are already in the ledger with a *SeatTakenError, inserts the
// reservation and its ledger rows and recomputes the counter.  The film,
// date and time of the reservation are taken from the showtime.  On
// success the stored row is copied back into res.
func (r *ReservationRepo) CreateWithSeats(ctx context.Context, res *model.Reservation) error {
    if res.ShowtimeID == nil || len(res.Seats) == 0 {
        return fmt.Errorf("create with seats: showtime and seats are required")
    }
    showtimeID := *res.ShowtimeID

    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    lock, err := lockShowtimeTx(ctx, tx, showtimeID)
    if err != nil {
        return err
    }
    if res.TheatreID != nil && *res.TheatreID != lock.TheatreID {
        return ErrTheatreMismatch
    }
    for _, s := range res.Seats {
        idx, ok := model.RowIndex(s.Row)
        if !ok || idx >= lock.SeatRows || s.Number < 1 || s.Number > lock.SeatsPerRow {
            return fmt.Errorf("%w: %s", ErrSeatOutOfRange, s.Label())
        }
    }
    taken, err := takenSeatsTx(ctx, tx, showtimeID, res.Seats)
    if err != nil {
        return err
    }
    if len(taken) > 0 {
        return &SeatTakenError{Seats: taken}
    }

    theatreID := lock.TheatreID
    res.TheatreID = &theatreID
    res.MovieTitle = lock.MovieTitle
    res.Date = lock.Date.Format("2006-01-02")
    res.Time = lock.Time
    res.SeatCount = len(res.Seats)
    id, err := insertReservationTx(ctx, tx, res)
    if err != nil {
        return err
    }
    seats := make([]model.SeatBooking, len(res.Seats))
    for i, s := range res.Seats {
        s.ReservationID = id
        s.TheatreID = theatreID
        s.ShowtimeID = showtimeID
        seats[i] = s
    }
    if err := insertSeatsTx(ctx, tx, seats); err != nil {
        return err
    }
    if err := recountTx(ctx, tx, showtimeID); err != nil {
        return err
    }
    stored, err := getReservationTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    *res = *stored
    return nil
}

// GetByID returns a reservation with its ledger rows, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    res, err := scanReservation(r.db.QueryRowContext(ctx,
        "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    seats, err := listSeatsByReservations(ctx, r.db, []uint64{id})
    if err != nil {
        return nil, err
    }
    res.Seats = seats[id]
    return &res, nil
}

// ListByUser returns a user's reservations newest first, each with its
// ledger rows.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
    if err != nil {
        return nil, err
    }
    out := []model.Reservation{}
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            rows.Close()
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, err
    }
    rows.Close()

    ids := make([]uint64, len(out))
    for i, res := range out {
        ids[i] = res.ID
    }
    seats, err := listSeatsByReservations(ctx, r.db, ids)
    if err != nil {
        return nil, err
    }
    for i := range out {
        out[i].Seats = seats[out[i].ID]
    }
    return out, nil
}

// Update overwrites a reservation's booking fields.  For seat-mapped
// reservations the category and price of every ledger row in res.Seats is
// rewritten too, under the showtime lock; the seats themselves never move.
// The reservation row is locked and must still be PENDING, otherwise
// ErrAlreadyPaid is returned and nothing changes.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
    cats, err := encodeCategories(res.SeatCategories)
    if err != nil {
        return err
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if res.SeatMapped() {
        if _, err := lockShowtimeTx(ctx, tx, *res.ShowtimeID); err != nil {
            return err
        }
    }
    var status string
    err = tx.QueryRowContext(ctx, "SELECT status FROM reservations WHERE id = ? FOR UPDATE", res.ID).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrReservationNotFound
    }
    if err != nil {
        return err
    }
    if status != model.StatusPending {
        return ErrAlreadyPaid
    }
    const q = `UPDATE reservations
               SET movie_title = ?, show_date = ?, show_time = ?, seat_count = ?, total_price = ?, seat_categories = ?
               WHERE id = ? AND status = ?`
    if _, err := tx.ExecContext(ctx, q, res.MovieTitle, res.Date, res.Time, res.SeatCount, res.TotalPrice, cats,
        res.ID, model.StatusPending); err != nil {
        return err
    }
    if res.SeatMapped() {
        for _, s := range res.Seats {
            if _, err := tx.ExecContext(ctx,
                "UPDATE seat_bookings SET category = ?, price = ? WHERE id = ? AND reservation_id = ?",
                s.Category, s.Price, s.ID, res.ID); err != nil {
                return err
            }
        }
    }
    stored, err := getReservationTx(ctx, tx, res.ID)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    *res = *stored
    return nil
}

// Delete removes a reservation, releases its ledger rows and recomputes
// the showtime counter in one transaction.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var showtimeID sql.NullInt64
    err = tx.QueryRowContext(ctx, "SELECT showtime_id FROM reservations WHERE id = ?", id).Scan(&showtimeID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrReservationNotFound
    }
    if err != nil {
        return err
    }
    if showtimeID.Valid {
        if _, err := lockShowtimeTx(ctx, tx, uint64(showtimeID.Int64)); err != nil {
            return err
        }
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM seat_bookings WHERE reservation_id = ?", id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id); err != nil {
        return err
    }
    if showtimeID.Valid {
        if err := recountTx(ctx, tx, uint64(showtimeID.Int64)); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// MarkPaid moves a PENDING reservation to PAID and stores the payment
// reference.  It returns ErrAlreadyPaid when the reservation is no longer
// pending and ErrReservationNotFound when it does not exist.
func (r *ReservationRepo) MarkPaid(ctx context.Context, id uint64, paymentRef string) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET status = ?, payment_ref = ? WHERE id = ? AND status = ?",
        model.StatusPaid, paymentRef, id, model.StatusPending)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    var status string
    err = r.db.QueryRowContext(ctx, "SELECT status FROM reservations WHERE id = ?", id).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrReservationNotFound
    }
    if err != nil {
        return err
    }
    return ErrAlreadyPaid
}
