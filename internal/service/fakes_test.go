package service

import (
    "context"
    "errors"
    "sort"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zaptest"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/cinemax/internal/config"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/queue"
    "github.com/iliyamo/cinemax/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema.  One mutex guards
// everything, which plays the role of the showtime row lock.
type memDB struct {
    mu sync.Mutex

    users       map[uint64]*model.User
    sessions    map[string]*model.Session
    movies      map[uint64]*model.Movie
    schedule    []model.ScheduleEntry
    theatres    map[uint64]model.Theatre
    showtimes   map[uint64]*model.Showtime
    bookings    map[uint64]*model.Reservation
    ledger      map[uint64]map[model.SeatRef]uint64
    nextID      uint64
    markPaidErr error
    // beforeUpdate runs at the start of Update, outside the lock.
    beforeUpdate func()
}

func newMemDB() *memDB {
    return &memDB{
        users:     map[uint64]*model.User{},
        sessions:  map[string]*model.Session{},
        movies:    map[uint64]*model.Movie{},
        theatres:  map[uint64]model.Theatre{},
        showtimes: map[uint64]*model.Showtime{},
        bookings:  map[uint64]*model.Reservation{},
        ledger:    map[uint64]map[model.SeatRef]uint64{},
    }
}

func (db *memDB) id() uint64 {
    db.nextID++
    return db.nextID
}

func (db *memDB) addTheatre(t model.Theatre) model.Theatre {
    db.mu.Lock()
    defer db.mu.Unlock()
    t.ID = db.id()
    db.theatres[t.ID] = t
    return t
}

func (db *memDB) addMovie(m model.Movie, times []string) model.Movie {
    db.mu.Lock()
    defer db.mu.Unlock()
    m.ID = db.id()
    db.movies[m.ID] = &m
    db.replaceSchedule(m.ID, model.DefaultWeekday, times)
    return m
}

func (db *memDB) addShowtime(movieID, theatreID uint64, day, at string) model.Showtime {
    db.mu.Lock()
    defer db.mu.Unlock()
    d, _ := time.Parse("2006-01-02", day)
    st := &model.Showtime{
        ID: db.id(), MovieID: movieID, MovieTitle: db.movies[movieID].Title,
        Date: d, Time: at, TheatreID: theatreID, TheatreName: db.theatres[theatreID].Name,
        AvailableSeats: db.theatres[theatreID].Capacity(),
    }
    db.showtimes[st.ID] = st
    return *st
}

func (db *memDB) available(showtimeID uint64) int {
    db.mu.Lock()
    defer db.mu.Unlock()
    return db.showtimes[showtimeID].AvailableSeats
}

func (db *memDB) ledgerSize(showtimeID uint64) int {
    db.mu.Lock()
    defer db.mu.Unlock()
    return len(db.ledger[showtimeID])
}

func (db *memDB) replaceSchedule(movieID uint64, weekday int, times []string) {
    kept := db.schedule[:0]
    for _, e := range db.schedule {
        if e.MovieID != movieID || e.Weekday != weekday {
            kept = append(kept, e)
        }
    }
    db.schedule = kept
    for i, t := range times {
        db.schedule = append(db.schedule, model.ScheduleEntry{MovieID: movieID, Weekday: weekday, Position: i, Time: t})
    }
}

func (db *memDB) recount(showtimeID uint64) {
    st := db.showtimes[showtimeID]
    st.AvailableSeats = db.theatres[st.TheatreID].Capacity() - len(db.ledger[showtimeID])
}

func cloneReservation(r *model.Reservation) *model.Reservation {
    c := *r
    c.Seats = append([]model.SeatBooking(nil), r.Seats...)
    c.SeatCategories = append([]string(nil), r.SeatCategories...)
    return &c
}

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, u *model.User) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    u.Email = strings.ToLower(strings.TrimSpace(u.Email))
    for _, o := range s.db.users {
        if o.Email == u.Email {
            return repository.ErrDuplicate
        }
    }
    u.ID = s.db.id()
    c := *u
    s.db.users[u.ID] = &c
    return nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    email = strings.ToLower(strings.TrimSpace(email))
    for _, u := range s.db.users {
        if u.Email == email {
            c := *u
            return &c, nil
        }
    }
    return nil, repository.ErrUserNotFound
}

func (s memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    u, ok := s.db.users[id]
    if !ok {
        return nil, repository.ErrUserNotFound
    }
    c := *u
    return &c, nil
}

type memSessions struct{ db *memDB }

func (s memSessions) Create(_ context.Context, sess model.Session) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    s.db.sessions[sess.ID] = &sess
    return nil
}

func (s memSessions) Active(_ context.Context, id string) (uint64, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    sess, ok := s.db.sessions[id]
    if !ok || sess.RevokedAt != nil || time.Now().After(sess.ExpiresAt) {
        return 0, repository.ErrSessionNotFound
    }
    return sess.UserID, nil
}

func (s memSessions) Revoke(_ context.Context, id string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    if sess, ok := s.db.sessions[id]; ok {
        now := time.Now()
        sess.RevokedAt = &now
    }
    return nil
}

type memMovies struct{ db *memDB }

func (s memMovies) sorted() []model.Movie {
    out := make([]model.Movie, 0, len(s.db.movies))
    for _, m := range s.db.movies {
        out = append(out, *m)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out
}

func (s memMovies) List(_ context.Context) ([]model.Movie, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    return s.sorted(), nil
}

func (s memMovies) Search(_ context.Context, q repository.MovieSearchQuery) ([]model.Movie, int64, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    var hit []model.Movie
    for _, m := range s.sorted() {
        if q.Title != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(q.Title)) {
            continue
        }
        if q.Rating != "" && m.Rating != q.Rating {
            continue
        }
        hit = append(hit, m)
    }
    return hit, int64(len(hit)), nil
}

func (s memMovies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    m, ok := s.db.movies[id]
    if !ok {
        return nil, repository.ErrMovieNotFound
    }
    c := *m
    return &c, nil
}

func (s memMovies) GetByTitle(_ context.Context, title string) (*model.Movie, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    for _, m := range s.db.movies {
        if m.Title == title {
            c := *m
            return &c, nil
        }
    }
    return nil, repository.ErrMovieNotFound
}

func (s memMovies) Create(_ context.Context, m *model.Movie, times []string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    for _, o := range s.db.movies {
        if o.Title == m.Title {
            return repository.ErrDuplicate
        }
    }
    m.ID = s.db.id()
    c := *m
    s.db.movies[m.ID] = &c
    s.db.replaceSchedule(m.ID, model.DefaultWeekday, times)
    return nil
}

func (s memMovies) Update(_ context.Context, m *model.Movie, times []string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    if _, ok := s.db.movies[m.ID]; !ok {
        return repository.ErrMovieNotFound
    }
    for _, o := range s.db.movies {
        if o.ID != m.ID && o.Title == m.Title {
            return repository.ErrDuplicate
        }
    }
    c := *m
    s.db.movies[m.ID] = &c
    if times != nil {
        s.db.replaceSchedule(m.ID, model.DefaultWeekday, times)
    }
    return nil
}

type memSchedules struct{ db *memDB }

func (s memSchedules) ListForMovie(_ context.Context, movieID uint64) ([]model.ScheduleEntry, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    var out []model.ScheduleEntry
    for _, e := range s.db.schedule {
        if e.MovieID == movieID {
            out = append(out, e)
        }
    }
    return out, nil
}

func (s memSchedules) ListAll(_ context.Context) ([]model.ScheduleEntry, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    return append([]model.ScheduleEntry(nil), s.db.schedule...), nil
}

func (s memSchedules) Replace(_ context.Context, movieID uint64, weekday int, times []string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    s.db.replaceSchedule(movieID, weekday, times)
    return nil
}

type memTheatres struct{ db *memDB }

func (s memTheatres) List(_ context.Context) ([]model.Theatre, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    out := make([]model.Theatre, 0, len(s.db.theatres))
    for _, t := range s.db.theatres {
        out = append(out, t)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s memTheatres) GetByID(_ context.Context, id uint64) (*model.Theatre, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    t, ok := s.db.theatres[id]
    if !ok {
        return nil, repository.ErrTheatreNotFound
    }
    return &t, nil
}

type memShowtimes struct{ db *memDB }

func (s memShowtimes) ListByDate(_ context.Context, day time.Time) ([]model.Showtime, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    var out []model.Showtime
    for _, st := range s.db.showtimes {
        if st.Date.Equal(day) {
            out = append(out, *st)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Time != out[j].Time {
            return out[i].Time < out[j].Time
        }
        return out[i].TheatreID < out[j].TheatreID
    })
    return out, nil
}

func (s memShowtimes) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    st, ok := s.db.showtimes[id]
    if !ok {
        return nil, repository.ErrShowtimeNotFound
    }
    c := *st
    return &c, nil
}

func (s memShowtimes) Create(_ context.Context, st *model.Showtime) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    th, ok := s.db.theatres[st.TheatreID]
    if !ok {
        return repository.ErrTheatreNotFound
    }
    for _, o := range s.db.showtimes {
        if o.Date.Equal(st.Date) && o.Time == st.Time && o.TheatreID == st.TheatreID {
            return repository.ErrDuplicate
        }
    }
    st.ID = s.db.id()
    st.AvailableSeats = th.Capacity()
    c := *st
    s.db.showtimes[st.ID] = &c
    return nil
}

type memSeats struct{ db *memDB }

func (s memSeats) BookedSeats(_ context.Context, showtimeID uint64) ([]model.SeatRef, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    out := make([]model.SeatRef, 0, len(s.db.ledger[showtimeID]))
    for ref := range s.db.ledger[showtimeID] {
        out = append(out, ref)
    }
    return out, nil
}

type memReservations struct{ db *memDB }

func (s memReservations) CreatePlain(_ context.Context, res *model.Reservation) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    res.ID = s.db.id()
    res.CreatedAt = time.Now()
    s.db.bookings[res.ID] = cloneReservation(res)
    return nil
}

func (s memReservations) CreateWithSeats(_ context.Context, res *model.Reservation) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    st, ok := s.db.showtimes[*res.ShowtimeID]
    if !ok {
        return repository.ErrShowtimeNotFound
    }
    if st.TheatreID != *res.TheatreID {
        return repository.ErrTheatreMismatch
    }
    th := s.db.theatres[st.TheatreID]
    var taken []model.SeatRef
    for _, seat := range res.Seats {
        idx, _ := model.RowIndex(seat.Row)
        if idx >= th.SeatRows || seat.Number > th.SeatsPerRow {
            return repository.ErrSeatOutOfRange
        }
        ref := model.SeatRef{Row: seat.Row, Number: seat.Number}
        if _, busy := s.db.ledger[st.ID][ref]; busy {
            taken = append(taken, ref)
        }
    }
    if len(taken) > 0 {
        return &repository.SeatTakenError{Seats: taken}
    }
    res.ID = s.db.id()
    res.MovieTitle = st.MovieTitle
    res.Date = st.Date.Format("2006-01-02")
    res.Time = st.Time
    res.CreatedAt = time.Now()
    if s.db.ledger[st.ID] == nil {
        s.db.ledger[st.ID] = map[model.SeatRef]uint64{}
    }
    for i := range res.Seats {
        res.Seats[i].ReservationID = res.ID
        res.Seats[i].ShowtimeID = st.ID
        res.Seats[i].TheatreID = st.TheatreID
        s.db.ledger[st.ID][model.SeatRef{Row: res.Seats[i].Row, Number: res.Seats[i].Number}] = res.ID
    }
    s.db.recount(st.ID)
    s.db.bookings[res.ID] = cloneReservation(res)
    return nil
}

func (s memReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    r, ok := s.db.bookings[id]
    if !ok {
        return nil, repository.ErrReservationNotFound
    }
    return cloneReservation(r), nil
}

func (s memReservations) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    var out []model.Reservation
    for _, r := range s.db.bookings {
        if r.UserID == userID {
            out = append(out, *cloneReservation(r))
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

func (s memReservations) Update(_ context.Context, res *model.Reservation) error {
    if s.db.beforeUpdate != nil {
        s.db.beforeUpdate()
    }
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    stored, ok := s.db.bookings[res.ID]
    if !ok {
        return repository.ErrReservationNotFound
    }
    if stored.Status != model.StatusPending {
        return repository.ErrAlreadyPaid
    }
    s.db.bookings[res.ID] = cloneReservation(res)
    return nil
}

func (s memReservations) Delete(_ context.Context, id uint64) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    r, ok := s.db.bookings[id]
    if !ok {
        return repository.ErrReservationNotFound
    }
    if r.ShowtimeID != nil {
        for ref, owner := range s.db.ledger[*r.ShowtimeID] {
            if owner == id {
                delete(s.db.ledger[*r.ShowtimeID], ref)
            }
        }
        s.db.recount(*r.ShowtimeID)
    }
    delete(s.db.bookings, id)
    return nil
}

func (s memReservations) MarkPaid(_ context.Context, id uint64, ref string) error {
    s.db.mu.Lock()
    defer s.db.mu.Unlock()
    if s.db.markPaidErr != nil {
        return s.db.markPaidErr
    }
    r, ok := s.db.bookings[id]
    if !ok {
        return repository.ErrReservationNotFound
    }
    if r.Status != model.StatusPending {
        return repository.ErrAlreadyPaid
    }
    r.Status = model.StatusPaid
    r.PaymentRef = &ref
    return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.BookingEvent
    err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.err != nil {
        return p.err
    }
    p.events = append(p.events, ev)
    return nil
}

func (p *recordingPublisher) kinds() []string {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]string, 0, len(p.events))
    for _, ev := range p.events {
        out = append(out, ev.Kind)
    }
    return out
}

var errBrokerDown = errors.New("broker down")

const testSecret = "test-secret"

// fixture wires every service over one memDB with two theatres, two
// movies and a showtime on 2025-12-04.
type fixture struct {
    db       *memDB
    events   *recordingPublisher
    accounts *AccountService
    catalog  *CatalogService
    registry *RegistryService
    bookings *BookingService

    salle1 model.Theatre
    salle2 model.Theatre
    film   model.Movie
    other  model.Movie
    show   model.Showtime
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    return newFixtureWithLogger(t, zaptest.NewLogger(t))
}

func newFixtureWithLogger(t *testing.T, log *zap.Logger) *fixture {
    t.Helper()
    db := newMemDB()
    f := &fixture{db: db, events: &recordingPublisher{}}
    f.salle1 = db.addTheatre(model.Theatre{Name: "Salle 1", SeatRows: 8, SeatsPerRow: 12})
    f.salle2 = db.addTheatre(model.Theatre{Name: "Salle 2", SeatRows: 10, SeatsPerRow: 14})
    f.film = db.addMovie(model.Movie{Title: "Les Étoiles Oubliées", Duration: 128, Rating: "PG-13"}, []string{"14:30", "17:45", "20:00"})
    f.other = db.addMovie(model.Movie{Title: "La Mélodie du Lac", Duration: 105, Rating: "PG"}, []string{"11:00", "15:30", "18:15", "21:00"})
    f.show = db.addShowtime(f.film.ID, f.salle1.ID, "2025-12-04", "20:00")

    pricing := config.DefaultPricing()
    f.accounts = NewAccountService(memUsers{db}, memSessions{db}, testSecret, time.Hour, bcrypt.MinCost, log)
    f.catalog = NewCatalogService(memMovies{db}, memSchedules{db}, pricing, log)
    f.registry = NewRegistryService(memShowtimes{db}, memTheatres{db}, memSeats{db}, memMovies{db}, log)
    f.bookings = NewBookingService(memReservations{db}, pricing, f.events, log)
    return f
}

// register creates a user and returns its id.
func (f *fixture) register(t *testing.T, email string) uint64 {
    t.Helper()
    res, err := f.accounts.Register(context.Background(), RegisterInput{
        Email: email, Password: "test1234", Nom: "Martin", Prenom: "Alex",
    })
    require.NoError(t, err)
    return res.User.ID
}

// seatRequest books the given seats of the fixture showtime as adults.
func (f *fixture) seatRequest(seats ...SeatSelection) BookingRequest {
    sid, tid := f.show.ID, f.show.TheatreID
    return BookingRequest{
        MovieTitle: f.film.Title,
        Date:       "2025-12-04",
        Time:       "20:00",
        Seats:      len(seats),
        Selected:   seats,
        ShowtimeID: &sid,
        TheatreID:  &tid,
    }
}
