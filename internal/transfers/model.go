// Package transfers manages the hand-off of recoltes from a supervisor to
// an admin, protected by a verification code.
package transfers

import "time"

// Status is the transfer lifecycle. Success and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusRejected Status = "rejected"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusRejected:
		return true
	default:
		return false
	}
}

// TransferRequest bundles recoltes handed from a supervisor to a chosen
// admin. Only that admin may verify or reveal the code. VerificationCode
// never serializes; the admin reveal endpoint returns it explicitly.
type TransferRequest struct {
	ID               int64      `json:"id"`
	SupervisorID     int64      `json:"supervisor_id"`
	AdminID          int64      `json:"admin_id"`
	Status           Status     `json:"status"`
	VerificationCode string     `json:"-"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
