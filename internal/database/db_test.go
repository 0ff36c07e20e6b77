package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"

	"github.com/iliyamo/venue-calendar/internal/config"
)

func TestDSN(t *testing.T) {
	c := qt.New(t)
	dsn := DSN(config.Config{DBUser: "app", DBPass: "pw", DBHost: "db", DBPort: "3306", DBName: "venues"})
	c.Assert(dsn, qt.Equals, "app:pw@tcp(db:3306)/venues?charset=utf8mb4&parseTime=true&loc=UTC")
	c.Assert(DSN(config.Config{DBUser: "root", DBHost: "localhost", DBPort: "3306", DBName: "v"}),
		qt.Equals, "root@tcp(localhost:3306)/v?charset=utf8mb4&parseTime=true&loc=UTC")
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	c := qt.New(t)
	db, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	defer db.Close()

	stmts := statements(schema)
	c.Assert(stmts, qt.HasLen, 5)
	for _, table := range []string{"users", "refresh_tokens", "venues", "venue_availability", "bookings"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table + " (")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	c.Assert(Migrate(context.Background(), db), qt.IsNil)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestMigrateStopsOnError(t *testing.T) {
	c := qt.New(t)
	db, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("access denied"))
	err = Migrate(context.Background(), db)
	c.Assert(err, qt.ErrorMatches, `migrate statement 1: access denied`)
}
