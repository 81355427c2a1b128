package users

import "time"

type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	SetLoggedIn(id string, at time.Time) error
}
