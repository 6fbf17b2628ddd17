package entity

import (
	"github.com/google/uuid"
)

// Doctor always belongs to exactly one hospital. UserID links the doctor to
// the account it signs in with; it is nil for doctors without portal access.
type Doctor struct {
	Base
	Name       string     `db:"name"`
	UserID     *uuid.UUID `db:"user_id"`
	HospitalID uuid.UUID  `db:"hospital_id"`
	Specialty  *string    `db:"specialty"`
	Phone      *string    `db:"phone"`
	IsActive   bool       `db:"is_active"`
}
