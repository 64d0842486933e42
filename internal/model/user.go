package model

import "time"

// User is a registered account holder.
// The stored credential is an opaque, algorithm-tagged password hash;
// the plaintext password never appears in this struct or in logs.
type User struct {
	Username           string // unique, case-sensitive
	PasswordHash       string
	CreatedAt          time.Time
	LastPasswordUpdate time.Time
}
