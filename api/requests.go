package api

import (
	"github.com/officegrid/sentinel/scope"
)

// ──────────────────────────────────────────────────
// Authorization requests
// ──────────────────────────────────────────────────

// PrincipalPayload describes the acting principal in an authorization request.
type PrincipalPayload struct {
	ID       string            `json:"id" description:"Principal identifier"`
	OfficeID string            `json:"office_id,omitempty" description:"Principal's home office"`
	Role     string            `json:"role" description:"Platform role (USER, MANAGER, ADMIN, CITY_ADMIN, STATE_ADMIN, COUNTRY_ADMIN)"`
	Granted  []string          `json:"granted,omitempty" description:"Explicitly granted permission identifiers"`
	Banned   []string          `json:"banned,omitempty" description:"Banned permission identifiers"`
	Scope    *scope.AdminScope `json:"scope,omitempty" description:"Geographic admin scope"`
}

// FeatureRefPayload names the feature requirement of a request.
type FeatureRefPayload struct {
	Group     string `json:"group,omitempty" description:"Feature group name for a group-level check"`
	Feature   string `json:"feature,omitempty" description:"Feature name for a granular check"`
	Operation string `json:"operation,omitempty" description:"Operation name for a granular check"`
}

// AuthorizeRequest is the request body for an authorization decision.
type AuthorizeRequest struct {
	Principal   *PrincipalPayload  `json:"principal,omitempty" description:"Acting principal (absent means anonymous)"`
	Operation   string             `json:"operation" description:"Operation being attempted"`
	Public      bool               `json:"public,omitempty" description:"Skip identity, role, and permission stages"`
	Roles       []string           `json:"roles,omitempty" description:"Required roles (any one suffices)"`
	Permissions []string           `json:"permissions,omitempty" description:"Required permissions (all must hold)"`
	Feature     *FeatureRefPayload `json:"feature,omitempty" description:"Feature entitlement requirement"`
	Query       map[string]string  `json:"query,omitempty" description:"Request query parameters"`
	Body        map[string]string  `json:"body,omitempty" description:"Request body parameters"`
	Path        map[string]string  `json:"path,omitempty" description:"Request path parameters"`
}

// ──────────────────────────────────────────────────
// Feature requests
// ──────────────────────────────────────────────────

// CreateFeatureRequest is the body for creating a feature.
type CreateFeatureRequest struct {
	Name        string `json:"name" description:"Globally unique feature name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
}

// UpdateFeatureRequest is the body for updating a feature.
type UpdateFeatureRequest struct {
	Description *string `json:"description,omitempty" description:"Human-readable description"`
	IsActive    *bool   `json:"is_active,omitempty" description:"Active flag"`
}

// GetFeatureRequest is the path parameter for getting a feature.
type GetFeatureRequest struct {
	FeatureID string `path:"featureId" description:"Feature ID"`
}

// ListFeaturesRequest holds query parameters for listing features.
type ListFeaturesRequest struct {
	IsActive *bool  `query:"is_active" description:"Filter by active flag"`
	Search   string `query:"search" description:"Search by name"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Feature group requests
// ──────────────────────────────────────────────────

// CreateGroupRequest is the body for creating a feature group.
type CreateGroupRequest struct {
	Name        string `json:"name" description:"Unique group name"`
	AppName     string `json:"app_name" description:"Unique application name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
	IsPaid      bool   `json:"is_paid,omitempty" description:"Paid-tier flag"`
}

// UpdateGroupRequest is the body for updating a feature group.
type UpdateGroupRequest struct {
	Description *string `json:"description,omitempty" description:"Human-readable description"`
	IsPaid      *bool   `json:"is_paid,omitempty" description:"Paid-tier flag"`
}

// GetGroupRequest is the path parameter for getting a feature group.
type GetGroupRequest struct {
	GroupID string `path:"groupId" description:"Feature group ID"`
}

// ListGroupsRequest holds query parameters for listing feature groups.
type ListGroupsRequest struct {
	IsPaid *bool  `query:"is_paid" description:"Filter by paid-tier flag"`
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// AddGroupFeatureRequest is the body for bundling a feature into a group.
type AddGroupFeatureRequest struct {
	FeatureID string `json:"feature_id" description:"Feature ID to add"`
}

// ──────────────────────────────────────────────────
// Token requests
// ──────────────────────────────────────────────────

// CreateTokenRequest is the body for minting an activation token.
type CreateTokenRequest struct {
	FeatureGroupID string `json:"feature_group_id" description:"Feature group the token activates"`
	ExpiresInDays  *int   `json:"expires_in_days,omitempty" description:"Grant lifetime in days (absent means non-expiring)"`
}

// GetTokenRequest is the path parameter for getting a token.
type GetTokenRequest struct {
	TokenID string `path:"tokenId" description:"Token ID"`
}

// ListTokensRequest holds query parameters for listing tokens.
type ListTokensRequest struct {
	FeatureGroupID string `query:"feature_group_id" description:"Filter by feature group"`
	IsActive       *bool  `query:"is_active" description:"Filter by active flag"`
	Limit          int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset         int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// ActivateGrantRequest is the body for a direct admin activation.
type ActivateGrantRequest struct {
	OfficeID       string `json:"office_id" description:"Office to entitle"`
	FeatureGroupID string `json:"feature_group_id" description:"Feature group to activate"`
}

// RedeemTokenRequest is the body for redeeming an activation token.
type RedeemTokenRequest struct {
	OfficeID string `json:"office_id" description:"Office redeeming the token"`
	Token    string `json:"token" description:"Token credential string"`
}

// DeactivateGrantRequest is the body for deactivating a grant.
type DeactivateGrantRequest struct {
	OfficeID       string `json:"office_id" description:"Office holding the grant"`
	FeatureGroupID string `json:"feature_group_id" description:"Feature group to deactivate"`
}

// ListGrantsRequest holds query parameters for listing grants.
type ListGrantsRequest struct {
	OfficeID       string `query:"office_id" description:"Filter by office"`
	FeatureGroupID string `query:"feature_group_id" description:"Filter by feature group"`
	IsActive       *bool  `query:"is_active" description:"Filter by active flag"`
	Limit          int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset         int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionsRequest holds query parameters for querying decision logs.
type ListDecisionsRequest struct {
	PrincipalID string `query:"principal_id" description:"Filter by principal"`
	OfficeID    string `query:"office_id" description:"Filter by office"`
	Allowed     *bool  `query:"allowed" description:"Filter by outcome"`
	Reason      string `query:"reason" description:"Filter by denial reason"`
	After       string `query:"after" description:"Only entries after this RFC3339 timestamp"`
	Before      string `query:"before" description:"Only entries before this RFC3339 timestamp"`
	Limit       int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset      int    `query:"offset" description:"Results to skip"`
}

// PurgeDecisionsRequest is the body for purging old decision logs.
type PurgeDecisionsRequest struct {
	Before string `json:"before" description:"Delete entries older than this RFC3339 timestamp"`
}
