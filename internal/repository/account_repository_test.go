package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemax/internal/model"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("jane@example.com", "hash", "Jane", "Doe", nil, nil, nil, false).
		WillReturnResult(sqlmock.NewResult(3, 1))

	u := &model.User{Email: "  Jane@Example.com ", PasswordHash: "hash", FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u))
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").WillReturnError(&mysql.MySQLError{Number: 1062})
	err = NewUserRepo(db).Create(context.Background(), &model.User{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "email", "password_hash", "first_name", "last_name", "sex", "city", "housing", "is_admin", "created_at", "updated_at"}
	now := time.Now().UTC()
	mock.ExpectQuery("FROM users WHERE email").WithArgs("test@cinema.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "test@cinema.com", "h", "Test", "Cinema", nil, "Lyon", nil, true, now, now))
	mock.ExpectQuery("FROM users WHERE email").WithArgs("nobody@cinema.com").
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "TEST@cinema.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	require.NotNil(t, u.City)
	assert.Equal(t, "Lyon", *u.City)
	assert.Nil(t, u.Sex)

	_, err = repo.GetByEmail(context.Background(), "nobody@cinema.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"user_id", "expires_at", "revoked_at"}
	future := time.Now().UTC().Add(time.Hour)
	mock.ExpectQuery("FROM sessions").WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, future, nil))
	mock.ExpectQuery("FROM sessions").WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, future, time.Now().UTC()))
	mock.ExpectQuery("FROM sessions").WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, time.Now().UTC().Add(-time.Minute), nil))
	mock.ExpectQuery("FROM sessions").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewSessionRepo(db)
	uid, err := repo.Active(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), uid)
	for _, id := range []string{"revoked", "expired", "missing"} {
		_, err := repo.Active(context.Background(), id)
		assert.ErrorIs(t, err, ErrSessionNotFound, id)
	}
}

func TestSessionRevokeAndPrune(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE sessions SET revoked_at").WithArgs("abc").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewSessionRepo(db)
	require.NoError(t, repo.Revoke(context.Background(), "abc"))
	n, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
