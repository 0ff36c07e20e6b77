// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrVenueNotFound is returned when a venue id does not exist. Handlers
// translate it into an HTTP 404 response.
var ErrVenueNotFound = errors.New("venue not found")

// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidRange is returned when a date range is empty or reversed.
var ErrInvalidRange = errors.New("invalid date range")

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// mysqlErrNumber returns the server error number carried by err, or 0.
func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
