package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/token"
)

// ──────────────────────────────────────────────────
// Feature model
// ──────────────────────────────────────────────────

type featureModel struct {
	grove.BaseModel `grove:"table:sentinel_features"`
	ID              string    `grove:"id,pk"        bson:"_id"`
	Name            string    `grove:"name"         bson:"name"`
	Description     string    `grove:"description"  bson:"description"`
	IsActive        bool      `grove:"is_active"    bson:"is_active"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"   bson:"updated_at"`
}

func featureToModel(f *feature.Feature) *featureModel {
	return &featureModel{
		ID:          f.ID.String(),
		Name:        f.Name,
		Description: f.Description,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func featureFromModel(m *featureModel) *feature.Feature {
	fid, _ := id.ParseFeatureID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &feature.Feature{
		ID:          fid,
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Feature group model
// ──────────────────────────────────────────────────

type featureGroupModel struct {
	grove.BaseModel `grove:"table:sentinel_feature_groups"`
	ID              string    `grove:"id,pk"        bson:"_id"`
	Name            string    `grove:"name"         bson:"name"`
	AppName         string    `grove:"app_name"     bson:"app_name"`
	Description     string    `grove:"description"  bson:"description"`
	IsPaid          bool      `grove:"is_paid"      bson:"is_paid"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"   bson:"updated_at"`
}

func groupToModel(g *feature.FeatureGroup) *featureGroupModel {
	return &featureGroupModel{
		ID:          g.ID.String(),
		Name:        g.Name,
		AppName:     g.AppName,
		Description: g.Description,
		IsPaid:      g.IsPaid,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func groupFromModel(m *featureGroupModel) *feature.FeatureGroup {
	gid, _ := id.ParseFeatureGroupID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &feature.FeatureGroup{
		ID:          gid,
		Name:        m.Name,
		AppName:     m.AppName,
		Description: m.Description,
		IsPaid:      m.IsPaid,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Group membership model
// ──────────────────────────────────────────────────

type groupFeatureModel struct {
	grove.BaseModel `grove:"table:sentinel_group_features"`
	GroupID         string `grove:"group_id"   bson:"group_id"`
	FeatureID       string `grove:"feature_id" bson:"feature_id"`
}

// ──────────────────────────────────────────────────
// Token model
// ──────────────────────────────────────────────────

type tokenModel struct {
	grove.BaseModel `grove:"table:sentinel_tokens"`
	ID              string    `grove:"id,pk"            bson:"_id"`
	Name            string    `grove:"name"             bson:"name"`
	FeatureGroupID  string    `grove:"feature_group_id" bson:"feature_group_id"`
	ExpiresInDays   *int      `grove:"expires_in_days"  bson:"expires_in_days,omitempty"`
	IsActive        bool      `grove:"is_active"        bson:"is_active"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
}

func tokenToModel(t *token.Token) *tokenModel {
	m := &tokenModel{
		ID:             t.ID.String(),
		Name:           t.Name,
		FeatureGroupID: t.FeatureGroupID.String(),
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.ExpiresInDays != nil {
		d := *t.ExpiresInDays
		m.ExpiresInDays = &d
	}
	return m
}

func tokenFromModel(m *tokenModel) *token.Token {
	tid, _ := id.ParseTokenID(m.ID)                    //nolint:errcheck // stored IDs are always valid
	gid, _ := id.ParseFeatureGroupID(m.FeatureGroupID) //nolint:errcheck
	t := &token.Token{
		ID:             tid,
		Name:           m.Name,
		FeatureGroupID: gid,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ExpiresInDays != nil {
		d := *m.ExpiresInDays
		t.ExpiresInDays = &d
	}
	return t
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:sentinel_grants"`
	ID              string     `grove:"id,pk"            bson:"_id"`
	OfficeID        string     `grove:"office_id"        bson:"office_id"`
	FeatureGroupID  string     `grove:"feature_group_id" bson:"feature_group_id"`
	TokenID         *string    `grove:"token_id"         bson:"token_id,omitempty"`
	IsActive        bool       `grove:"is_active"        bson:"is_active"`
	ActivatedAt     time.Time  `grove:"activated_at"     bson:"activated_at"`
	ExpiresAt       *time.Time `grove:"expires_at"       bson:"expires_at,omitempty"`
	CreatedAt       time.Time  `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"       bson:"updated_at"`
}

func grantToModel(g *grant.Grant) *grantModel {
	m := &grantModel{
		ID:             g.ID.String(),
		OfficeID:       g.OfficeID,
		FeatureGroupID: g.FeatureGroupID.String(),
		IsActive:       g.IsActive,
		ActivatedAt:    g.ActivatedAt,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
	if !g.TokenID.IsNil() {
		s := g.TokenID.String()
		m.TokenID = &s
	}
	if g.ExpiresAt != nil {
		e := *g.ExpiresAt
		m.ExpiresAt = &e
	}
	return m
}

func grantFromModel(m *grantModel) *grant.Grant {
	grantID, _ := id.ParseGrantID(m.ID)                //nolint:errcheck // stored IDs are always valid
	gid, _ := id.ParseFeatureGroupID(m.FeatureGroupID) //nolint:errcheck
	g := &grant.Grant{
		ID:             grantID,
		OfficeID:       m.OfficeID,
		FeatureGroupID: gid,
		IsActive:       m.IsActive,
		ActivatedAt:    m.ActivatedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.TokenID != nil {
		tid, err := id.ParseTokenID(*m.TokenID)
		if err == nil {
			g.TokenID = tid
		}
	}
	if m.ExpiresAt != nil {
		e := *m.ExpiresAt
		g.ExpiresAt = &e
	}
	return g
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionModel struct {
	grove.BaseModel `grove:"table:sentinel_decision_logs"`
	ID              string    `grove:"id,pk"        bson:"_id"`
	PrincipalID     string    `grove:"principal_id" bson:"principal_id"`
	Role            string    `grove:"role"         bson:"role"`
	OfficeID        string    `grove:"office_id"    bson:"office_id"`
	Operation       string    `grove:"operation"    bson:"operation"`
	Allowed         bool      `grove:"allowed"      bson:"allowed"`
	Reason          string    `grove:"reason"       bson:"reason"`
	Predicate       string    `grove:"predicate"    bson:"predicate"`
	EvalTimeNs      int64     `grove:"eval_time_ns" bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
}

func decisionToModel(e *decisionlog.Entry) *decisionModel {
	return &decisionModel{
		ID:          e.ID.String(),
		PrincipalID: e.PrincipalID,
		Role:        e.Role,
		OfficeID:    e.OfficeID,
		Operation:   e.Operation,
		Allowed:     e.Allowed,
		Reason:      e.Reason,
		Predicate:   e.Predicate,
		EvalTimeNs:  e.EvalTimeNs,
		CreatedAt:   e.CreatedAt,
	}
}

func decisionFromModel(m *decisionModel) *decisionlog.Entry {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &decisionlog.Entry{
		ID:          lid,
		PrincipalID: m.PrincipalID,
		Role:        m.Role,
		OfficeID:    m.OfficeID,
		Operation:   m.Operation,
		Allowed:     m.Allowed,
		Reason:      m.Reason,
		Predicate:   m.Predicate,
		EvalTimeNs:  m.EvalTimeNs,
		CreatedAt:   m.CreatedAt,
	}
}
