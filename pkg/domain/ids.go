// Package domain holds shared identifier and enumeration types. Typed UUIDs keep
// member and donation identifiers from being swapped at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "givebridge/pkg/domain-errors"
)

// MemberID identifies a registered account.
type MemberID uuid.UUID

// DonationID identifies one donation attempt.
type DonationID uuid.UUID

func (id MemberID) String() string   { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }

func (id MemberID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form for JSON and logs.
func (id MemberID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id DonationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses an ID with the same trust-boundary rules as ParseMemberID.
func (id *MemberID) UnmarshalText(b []byte) error {
	parsed, err := ParseMemberID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DonationID) UnmarshalText(b []byte) error {
	parsed, err := ParseDonationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewMemberID returns a fresh random member identifier.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewDonationID returns a fresh random donation identifier.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// ParseMemberID parses an identifier arriving at a trust boundary. Empty, nil,
// and malformed values are all rejected.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return MemberID{}, err
	}
	return MemberID(u), nil
}

// ParseDonationID parses a donation identifier arriving at a trust boundary.
func ParseDonationID(s string) (DonationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DonationID{}, err
	}
	return DonationID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
