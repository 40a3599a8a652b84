// Package decisionlog defines the authorization decision audit Entry entity.
package decisionlog

import (
	"time"

	"github.com/officegrid/sentinel/id"
)

// Entry is a single authorization decision audit record.
type Entry struct {
	ID          id.DecisionLogID `json:"id" db:"id"`
	PrincipalID string           `json:"principal_id,omitempty" db:"principal_id"`
	Role        string           `json:"role,omitempty" db:"role"`
	OfficeID    string           `json:"office_id,omitempty" db:"office_id"`
	Operation   string           `json:"operation,omitempty" db:"operation"`
	Allowed     bool             `json:"allowed" db:"allowed"`
	Reason      string           `json:"reason,omitempty" db:"reason"`
	Predicate   string           `json:"predicate,omitempty" db:"predicate"`
	EvalTimeNs  int64            `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	PrincipalID string     `json:"principal_id,omitempty"`
	OfficeID    string     `json:"office_id,omitempty"`
	Allowed     *bool      `json:"allowed,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	After       *time.Time `json:"after,omitempty"`
	Before      *time.Time `json:"before,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}
