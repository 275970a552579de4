package model

import (
    "sort"
    "time"
)

// Movie is a film in the catalog.  Titles are unique but only used for
// display; every reference between tables goes through the ID.  This
// struct corresponds to a row in the `movies` table.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – unique display title.
//  Director    – director name (may be empty for seeded titles).
//  Cast        – ordered list of cast members.
//  Description – synopsis.
//  Duration    – running time in minutes, always > 0.
//  Rating      – content rating label (PG-13, Tous publics, 16+ …).
//  PosterURL   – poster image URI.
//  TrailerURL  – optional trailer URI.
//  Color       – optional CSS background used by the front end.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
    ID          uint64    // movies.id
    Title       string    // movies.title
    Director    string    // movies.director
    Cast        []string  // movies.cast (JSON array)
    Description string    // movies.description
    Duration    int       // movies.duration_min
    Rating      string    // movies.rating
    PosterURL   string    // movies.poster_url
    TrailerURL  *string   // movies.trailer_url (nullable)
    Color       *string   // movies.color (nullable)
    CreatedAt   time.Time // movies.created_at
    UpdatedAt   time.Time // movies.updated_at
}

// DefaultWeekday marks schedule entries that apply to every weekday
// without a dedicated schedule.
const DefaultWeekday = -1

// ScheduleEntry is one time slot of a movie's weekly schedule.  Weekday
// follows time.Weekday numbering (Sunday = 0) or DefaultWeekday.
type ScheduleEntry struct {
    MovieID  uint64 // movie_schedules.movie_id
    Weekday  int    // movie_schedules.weekday
    Position int    // movie_schedules.position
    Time     string // movie_schedules.show_time ("HH:MM")
}

// AvailableDate is one entry of the rolling date picker.
type AvailableDate struct {
    ISO   string // 2006-01-02
    Label string // Mon 02 Jan
}

// TimesFor resolves the ordered show times of a weekday from a movie's
// schedule entries: the weekday's own list when it has one, otherwise the
// default list, otherwise nothing.
func TimesFor(entries []ScheduleEntry, weekday int) []string {
    var own, def []ScheduleEntry
    for _, e := range entries {
        switch e.Weekday {
        case weekday:
            own = append(own, e)
        case DefaultWeekday:
            def = append(def, e)
        }
    }
    pick := own
    if len(pick) == 0 {
        pick = def
    }
    sort.SliceStable(pick, func(i, j int) bool { return pick[i].Position < pick[j].Position })
    out := make([]string, 0, len(pick))
    for _, e := range pick {
        out = append(out, e.Time)
    }
    return out
}
