package database

import (
	"fmt"
	"time"

	"github.com/iliyamo/cinemax/internal/model"
)

type seedTheatre struct {
	Name        string
	SeatRows    int
	SeatsPerRow int
}

type seedMovie struct {
	Title       string
	Description string
	Duration    int
	Rating      string
	Color       string
	Times       []string
	// Weekend replaces Times on Saturdays and Sundays when set.
	Weekend []string
}

type seedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Admin     bool
}

var seedTheatres = []seedTheatre{
	{"Salle 1", 8, 12},
	{"Salle 2", 10, 14},
	{"Salle 3", 6, 10},
	{"Salle 4", 12, 16},
}

var seedMovies = []seedMovie{
	{
		Title:       "Les Étoiles Oubliées",
		Description: "Un voyage émouvant à travers l'espace et la mémoire.",
		Duration:    125,
		Rating:      "PG-13",
		Color:       "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		Times:       []string{"14:00", "17:30", "20:45"},
	},
	{
		Title:       "La Mélodie du Lac",
		Description: "Une histoire d'amitié et de musique dans un village côtier.",
		Duration:    98,
		Rating:      "Tous publics",
		Color:       "linear-gradient(135deg, #f093fb 0%, #f5576c 100%)",
		Times:       []string{"13:15", "16:00", "19:00"},
		Weekend:     []string{"10:30", "13:15", "16:00", "19:00"},
	},
	{
		Title:       "Course Contre le Temps",
		Description: "Thriller haletant où chaque seconde compte.",
		Duration:    110,
		Rating:      "PG-13",
		Color:       "linear-gradient(135deg, #4facfe 0%, #00f2fe 100%)",
		Times:       []string{"15:00", "18:30", "22:00"},
	},
	{
		Title:       "Les Enfants du Vent",
		Description: "Portrait d'une famille et des secrets qu'elle garde.",
		Duration:    105,
		Rating:      "Tous publics",
		Color:       "linear-gradient(135deg, #43e97b 0%, #38f9d7 100%)",
		Times:       []string{"12:45", "15:30", "20:15"},
	},
	{
		Title:       "Nuit Blanche",
		Description: "Enquête urbaine à couper le souffle.",
		Duration:    118,
		Rating:      "PG-13",
		Color:       "linear-gradient(135deg, #fa709a 0%, #fee140 100%)",
		Times:       []string{"16:00", "19:45", "23:00"},
	},
	{
		Title:       "La Route des Rêves",
		Description: "Aventure poétique sur fond de road-trip.",
		Duration:    132,
		Rating:      "Tous publics",
		Color:       "linear-gradient(135deg, #a8edea 0%, #fed6e3 100%)",
		Times:       []string{"11:30", "14:30", "18:00"},
	},
	{
		Title:       "Opération Minuit",
		Description: "Action non-stop et retournements inattendus.",
		Duration:    107,
		Rating:      "PG-13",
		Color:       "linear-gradient(135deg, #ff9a56 0%, #ff6a88 100%)",
		Times:       []string{"13:00", "17:00", "21:00"},
	},
	{
		Title:       "Coeurs en Hiver",
		Description: "Comédie romantique tendre et légère.",
		Duration:    95,
		Rating:      "Tous publics",
		Color:       "linear-gradient(135deg, #ffecd2 0%, #fcb69f 100%)",
		Times:       []string{"12:00", "15:00", "18:30"},
	},
	{
		Title:       "Mémoires Perdues",
		Description: "Drame psychologique et quête d'identité.",
		Duration:    140,
		Rating:      "16+",
		Color:       "linear-gradient(135deg, #2e2e78 0%, #16213e 100%)",
		Times:       []string{"17:15", "20:30"},
	},
	{
		Title:       "Rivages lointains",
		Description: "Épopée maritime et destin croisé.",
		Duration:    123,
		Rating:      "Tous publics",
		Color:       "linear-gradient(135deg, #1e3c72 0%, #2a5298 100%)",
		Times:       []string{"10:45", "14:15", "19:30"},
	},
}

// posterURL returns the placeholder poster of the i-th seeded movie.
func posterURL(i int) string {
	return fmt.Sprintf("https://picsum.photos/300/450?random=%d", i+1)
}

// scheduleEntries expands a seeded movie's time lists into schedule rows.
func (m seedMovie) scheduleEntries(movieID uint64) []model.ScheduleEntry {
	var out []model.ScheduleEntry
	for i, t := range m.Times {
		out = append(out, model.ScheduleEntry{MovieID: movieID, Weekday: model.DefaultWeekday, Position: i, Time: t})
	}
	for _, wd := range []time.Weekday{time.Saturday, time.Sunday} {
		for i, t := range m.Weekend {
			out = append(out, model.ScheduleEntry{MovieID: movieID, Weekday: int(wd), Position: i, Time: t})
		}
	}
	return out
}
