package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemax/internal/model"
)

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnError(errors.New("denied"))
	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
}

func TestSeedShowtimesNeverClash(t *testing.T) {
	start := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 7; d++ {
		day := start.AddDate(0, 0, d)
		used := map[string]bool{}
		for i, m := range seedMovies {
			theatre := i % len(seedTheatres)
			for _, at := range model.TimesFor(m.scheduleEntries(uint64(i+1)), int(day.Weekday())) {
				key := seedTheatres[theatre].Name + " " + at
				assert.False(t, used[key], "clash on %s %s", day.Format("2006-01-02"), key)
				used[key] = true
			}
		}
	}
}

func TestSeedMoviesWeekendSchedule(t *testing.T) {
	require.Len(t, seedMovies, 10)
	lac := seedMovies[1]
	entries := lac.scheduleEntries(2)
	assert.Equal(t, []string{"10:30", "13:15", "16:00", "19:00"}, model.TimesFor(entries, int(time.Saturday)))
	assert.Equal(t, []string{"13:15", "16:00", "19:00"}, model.TimesFor(entries, int(time.Thursday)))
	assert.Equal(t, "https://picsum.photos/300/450?random=2", posterURL(1))
	for _, th := range seedTheatres {
		assert.LessOrEqual(t, th.SeatRows, model.MaxTheatreRows)
	}
}
