package model

import "time"

// Roles stored in users.role and carried in the "role" claim of access
// tokens. ADMIN and STAFF manage venue calendars; CLIENT can only read.
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleClient = "CLIENT"
)

// User represents an application user record as stored in the
// `users` table. The json tags are omitted because handlers define
// their own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of RoleAdmin, RoleStaff, RoleClient.
//  IsActive     – inactive users cannot log in or refresh.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// CanManageCalendar reports whether role may write venue availability.
func CanManageCalendar(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
