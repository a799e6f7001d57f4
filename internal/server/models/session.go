package models

import "database/sql"

// Session is a row of the sessions table. The token itself is the primary
// key; UserID may be null for a session not bound to any user.
type Session struct {
	Token  []byte
	UserID sql.NullInt64
}
