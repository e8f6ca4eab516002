package entity

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleUser          Role = "user"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

func validPassword(pw string) error {
	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleUser
}

// User represents an account row in the `users` table. The password is only
// ever held as a KDF hash.
type User struct {
	ID           int64     `db:"id"`
	Firstname    string    `db:"firstname"`
	Lastname     string    `db:"lastname"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	PasswordAlgo string    `db:"password_algo"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdministrator }

// SafeUser is the projection returned to clients.
type SafeUser struct {
	ID        int64     `json:"id" db:"id"`
	Firstname string    `json:"firstname" db:"firstname"`
	Lastname  string    `json:"lastname" db:"lastname"`
	Username  string    `json:"username" db:"username"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateInput is the body of POST /users.
type CreateInput struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
}

// Normalize trims names and defaults the role, then validates.
func (in *CreateInput) Normalize() error {
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Lastname = strings.TrimSpace(in.Lastname)
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = RoleUser
	}
	if err := validUsername(in.Username); err != nil {
		return err
	}
	if in.Password == "" {
		return fmt.Errorf("password is required")
	}
	if err := validPassword(in.Password); err != nil {
		return err
	}
	if !in.Role.Valid() {
		return fmt.Errorf("role must be %q or %q", RoleAdministrator, RoleUser)
	}
	return nil
}

// UpdateInput is the body of PUT /users/{id}. Absent fields are left
// unchanged. Password is accepted as an alias of NewPassword.
type UpdateInput struct {
	Firstname       *string `json:"firstname"`
	Lastname        *string `json:"lastname"`
	Username        *string `json:"username"`
	Role            *Role   `json:"role"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// PasswordChange returns the requested new password, if any.
func (in UpdateInput) PasswordChange() (string, bool) {
	if in.NewPassword != nil && *in.NewPassword != "" {
		return *in.NewPassword, true
	}
	if in.Password != nil && *in.Password != "" {
		return *in.Password, true
	}
	return "", false
}

func (in UpdateInput) Validate() error {
	if in.Username != nil {
		if err := validUsername(strings.TrimSpace(*in.Username)); err != nil {
			return err
		}
	}
	if in.Role != nil && !in.Role.Valid() {
		return fmt.Errorf("role must be %q or %q", RoleAdministrator, RoleUser)
	}
	if pw, ok := in.PasswordChange(); ok {
		return validPassword(pw)
	}
	return nil
}

// Apply merges the profile fields into u. Passwords are handled by the
// caller.
func (in UpdateInput) Apply(u *User) {
	if in.Firstname != nil {
		u.Firstname = strings.TrimSpace(*in.Firstname)
	}
	if in.Lastname != nil {
		u.Lastname = strings.TrimSpace(*in.Lastname)
	}
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
}

func validUsername(s string) error {
	if s == "" {
		return fmt.Errorf("username is required")
	}
	if len(s) > 255 {
		return fmt.Errorf("username must be at most 255 characters")
	}
	return nil
}
