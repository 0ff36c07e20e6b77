package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"
)

func TestVenueExists(t *testing.T) {
	c := qt.New(t)
	db, mock := newMock(c)
	q := regexp.QuoteMeta("SELECT 1 FROM venues WHERE id = ? LIMIT 1")
	mock.ExpectQuery(q).WithArgs(uint64(3)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q).WithArgs(uint64(4)).WillReturnError(sql.ErrNoRows)

	repo := NewVenueRepo(db)
	c.Assert(repo.Exists(context.Background(), 3), qt.IsNil)
	c.Assert(repo.Exists(context.Background(), 4), qt.Equals, ErrVenueNotFound)
}
