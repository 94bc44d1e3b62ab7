package identity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

var validRoles = map[string]bool{
	RoleAdmin: true, RoleDoctor: true, RolePatient: true,
}

func ValidRole(r string) bool {
	return validRoles[r]
}

// User maps to the app_user table. PasswordHash never serializes.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Doctor maps to the doctor table: a user with role=doctor plus a specialty.
type Doctor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Specialty string    `db:"specialty" json:"specialty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined from app_user on reads.
	FirstName string `db:"-" json:"first_name,omitempty"`
	LastName  string `db:"-" json:"last_name,omitempty"`
	Email     string `db:"-" json:"email,omitempty"`
}
