package api

import (
	"github.com/officegrid/sentinel/scope"
)

// AuthorizeResponse is the response for an authorization decision.
type AuthorizeResponse struct {
	Allowed    bool            `json:"allowed" description:"Whether the request is allowed"`
	Reason     string          `json:"reason" description:"Decision reason code"`
	Predicate  scope.Predicate `json:"predicate" description:"Data-visibility predicate for the data layer"`
	OfficeID   string          `json:"office_id,omitempty" description:"Office the entitlement check applied to"`
	EvalTimeNs int64           `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// PurgeDecisionsResponse reports how many entries a purge removed.
type PurgeDecisionsResponse struct {
	Purged int64 `json:"purged" description:"Number of entries removed"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
