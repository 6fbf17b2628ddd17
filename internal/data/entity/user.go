package entity

type UserRole string

const (
	RolePatient UserRole = "patient"
	RoleDoctor  UserRole = "doctor"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	Base
	Name         string   `db:"name"`
	Email        *string  `db:"email"`
	PasswordHash string   `db:"password"`
	Mobile       string   `db:"mobile"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
