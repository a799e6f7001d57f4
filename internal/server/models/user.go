// Package models defines server-side data models persisted in the database.
package models

import "database/sql"

// Permission levels are a flat ordered scalar: higher means more privilege.
// The column carries no upper bound; these are just the named tiers.
const (
	PermissionUser  int32 = 0
	PermissionAdmin int32 = 1
)

// User is a row of the users table. PasswordHash holds the PHC-encoded
// derived credential, never the raw secret.
type User struct {
	ID              int64
	Username        string
	Profile         sql.NullString
	PermissionLevel int32
	PasswordHash    string
}
