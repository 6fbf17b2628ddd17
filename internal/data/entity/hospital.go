package entity

type HospitalStatus string

const (
	HospitalStatusPending  HospitalStatus = "pending"
	HospitalStatusApproved HospitalStatus = "approved"
	HospitalStatusRejected HospitalStatus = "rejected"
)

// Hospital must be in approved status before any booking can reference it.
// LinkedAccountID is the optional gateway sub-account used as the payout
// destination for split transfers; nil means no automatic split.
type Hospital struct {
	Base
	Name            string         `db:"name"`
	City            string         `db:"city"`
	Address         *string        `db:"address"`
	Phone           *string        `db:"phone"`
	Status          HospitalStatus `db:"status"`
	LinkedAccountID *string        `db:"linked_account_id"`
}
