package model

import (
	"strings"

	"github.com/google/uuid"
)

// User is the subset of the users table the jobs read.
type User struct {
	Base
	AdminID   *uuid.UUID `json:"admin_id" db:"admin_id"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Email     string     `json:"email" db:"email"`
}

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
