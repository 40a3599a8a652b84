package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/grants/activate", a.activateGrant,
		forge.WithSummary("Activate feature group"),
		forge.WithDescription("Directly activates a feature group for an office without a token."),
		forge.WithOperationID("activateGrant"),
		forge.WithRequestSchema(ActivateGrantRequest{}),
		forge.WithCreatedResponse(&grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/grants/redeem", a.redeemToken,
		forge.WithSummary("Redeem activation token"),
		forge.WithDescription("Redeems a token credential and activates its feature group for the office."),
		forge.WithOperationID("redeemToken"),
		forge.WithRequestSchema(RedeemTokenRequest{}),
		forge.WithCreatedResponse(&grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/grants/deactivate", a.deactivateGrant,
		forge.WithSummary("Deactivate grant"),
		forge.WithDescription("Flips a grant inactive. The row is kept as an audit trail."),
		forge.WithOperationID("deactivateGrant"),
		forge.WithRequestSchema(DeactivateGrantRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/grants/:grantId", a.getGrant,
		forge.WithSummary("Get grant"),
		forge.WithDescription("Returns details of a specific grant."),
		forge.WithOperationID("getGrant"),
		forge.WithResponseSchema(http.StatusOK, "Grant details", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/grants", a.listGrants,
		forge.WithSummary("List grants"),
		forge.WithDescription("Lists grants with optional filters."),
		forge.WithOperationID("listGrants"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) activateGrant(ctx forge.Context, req *ActivateGrantRequest) (*grant.Grant, error) {
	if req.OfficeID == "" {
		return nil, forge.BadRequest("office_id is required")
	}
	groupID, err := id.ParseFeatureGroupID(req.FeatureGroupID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	g, err := a.eng.Activator().Activate(ctx.Context(), req.OfficeID, groupID, nil)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) redeemToken(ctx forge.Context, req *RedeemTokenRequest) (*grant.Grant, error) {
	if req.OfficeID == "" {
		return nil, forge.BadRequest("office_id is required")
	}
	if req.Token == "" {
		return nil, forge.BadRequest("token is required")
	}

	g, err := a.eng.Activator().RedeemToken(ctx.Context(), req.OfficeID, req.Token)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) deactivateGrant(ctx forge.Context, req *DeactivateGrantRequest) (*struct{}, error) {
	if req.OfficeID == "" {
		return nil, forge.BadRequest("office_id is required")
	}
	groupID, err := id.ParseFeatureGroupID(req.FeatureGroupID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	if err := a.eng.Activator().Deactivate(ctx.Context(), req.OfficeID, groupID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) getGrant(ctx forge.Context, _ *struct{}) (*grant.Grant, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	g, err := a.eng.Store().GetGrantByID(ctx.Context(), grantID)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) listGrants(ctx forge.Context, req *ListGrantsRequest) ([]*grant.Grant, error) {
	filter := &grant.ListFilter{
		OfficeID: req.OfficeID,
		IsActive: req.IsActive,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	if req.FeatureGroupID != "" {
		groupID, err := id.ParseFeatureGroupID(req.FeatureGroupID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
		}
		filter.FeatureGroupID = &groupID
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}
