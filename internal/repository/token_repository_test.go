package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"
)

func TestValidateRefresh(t *testing.T) {
	c := qt.New(t)
	db, mock := newMock(c)
	q := regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1")
	cols := []string{"user_id", "expires_at", "revoked_at"}
	future := time.Now().UTC().Add(time.Hour)
	mock.ExpectQuery(q).WithArgs("live").WillReturnRows(sqlmock.NewRows(cols).AddRow(9, future, nil))
	mock.ExpectQuery(q).WithArgs("revoked").WillReturnRows(sqlmock.NewRows(cols).AddRow(9, future, time.Now()))
	mock.ExpectQuery(q).WithArgs("expired").WillReturnRows(sqlmock.NewRows(cols).AddRow(9, time.Now().UTC().Add(-time.Hour), nil))

	repo := NewTokenRepo(db)
	id, err := repo.ValidateRefresh(context.Background(), "live")
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, uint64(9))
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	c.Assert(err, qt.Equals, sql.ErrNoRows)
	_, err = repo.ValidateRefresh(context.Background(), "expired")
	c.Assert(err, qt.Equals, sql.ErrNoRows)
}

func TestRevokeByHashReportsRace(t *testing.T) {
	c := qt.New(t)
	db, mock := newMock(c)
	q := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=?")
	mock.ExpectExec(q).WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTokenRepo(db)
	ok, err := repo.RevokeByHash(context.Background(), "h")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	ok, err = repo.RevokeByHash(context.Background(), "h")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}
