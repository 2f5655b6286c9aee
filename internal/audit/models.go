package audit

import (
	"time"

	"github.com/google/uuid"

	"givebridge/pkg/domain"
)

// Entry records one sensitive administrative action. Entries are append-only
// and written synchronously with the action they record.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   domain.MemberID `json:"actor_id"`
	Action    string          `json:"action"`
	Target    string          `json:"target,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Action labels for the audited operations.
const (
	ActionViewFinancialInsights = "VIEW_FINANCIAL_ANALYTICS"
	ActionApproveAdmin          = "APPROVE_ADMIN"
)
