package model

import (
	"fmt"
	"time"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole validates a stored role value.
func ParseRole(v string) (Role, error) {
	switch r := Role(v); r {
	case RoleAdmin, RoleUser:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", v)
}

// Account is a registered user of the rental shop.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
