package models

import (
	"time"

	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
)

// Status is the donation lifecycle state. Transitions run pending -> success
// or pending -> failed; success and failed are terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// SettledStatus maps a gateway outcome to the terminal status.
func SettledStatus(isSuccess bool) Status {
	if isSuccess {
		return StatusSuccess
	}
	return StatusFailed
}

// Donation is one donation attempt.
//
// Invariants:
//   - Amount is positive and immutable after creation
//   - OrderRef is unique and is the sole settlement lookup key
//   - Status starts pending; settlement overwrites status and notes, and the
//     latest settlement wins (re-settling a terminal record is permitted)
//   - Records are never deleted
type Donation struct {
	ID        domain.DonationID `json:"id"`
	MemberID  domain.MemberID   `json:"member_id"`
	Amount    int64             `json:"amount"`
	OrderRef  string            `json:"order_ref"`
	Status    Status            `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewDonation constructs a pending donation owned by the acting member.
func NewDonation(id domain.DonationID, memberID domain.MemberID, amount int64, orderRef string, now time.Time) (*Donation, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	if orderRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "order reference is required")
	}
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "donation must have an owner")
	}
	return &Donation{
		ID:        id,
		MemberID:  memberID,
		Amount:    amount,
		OrderRef:  orderRef,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

// ApplySettlement records the gateway outcome. Amount and creation time are
// untouched; only status and notes change.
func (d *Donation) ApplySettlement(isSuccess bool, notes string) {
	d.Status = SettledStatus(isSuccess)
	d.Notes = notes
}

// DailyTotal is one row of the per-day financial insight aggregation.
// Day is the UTC calendar date in YYYY-MM-DD form.
type DailyTotal struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
	Count int64  `json:"count"`
}

// DonorTotal is one row of the per-donor aggregation, keyed by owning member.
type DonorTotal struct {
	MemberID domain.MemberID `json:"member_id"`
	Total    int64           `json:"total"`
	Count    int64           `json:"count"`
}
