package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/token"
)

func (a *API) registerTokenRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tokens"))

	if err := g.POST("/tokens", a.createToken,
		forge.WithSummary("Mint activation token"),
		forge.WithDescription("Mints a fresh activation token for a feature group."),
		forge.WithOperationID("createToken"),
		forge.WithRequestSchema(CreateTokenRequest{}),
		forge.WithCreatedResponse(&token.Token{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tokens/:tokenId", a.getToken,
		forge.WithSummary("Get token"),
		forge.WithDescription("Returns details of a specific token."),
		forge.WithOperationID("getToken"),
		forge.WithResponseSchema(http.StatusOK, "Token details", &token.Token{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/tokens/:tokenId", a.deactivateToken,
		forge.WithSummary("Deactivate token"),
		forge.WithDescription("Marks a token unusable for future redemptions. Grants already activated through it are unaffected."),
		forge.WithOperationID("deactivateToken"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/tokens", a.listTokens,
		forge.WithSummary("List tokens"),
		forge.WithDescription("Lists tokens with optional filters."),
		forge.WithOperationID("listTokens"),
		forge.WithRequestSchema(ListTokensRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Token list", []*token.Token{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createToken(ctx forge.Context, req *CreateTokenRequest) (*token.Token, error) {
	groupID, err := id.ParseFeatureGroupID(req.FeatureGroupID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}
	if req.ExpiresInDays != nil && *req.ExpiresInDays <= 0 {
		return nil, forge.BadRequest("expires_in_days must be positive")
	}

	// The group must exist before minting a credential against it.
	if _, err := a.eng.Store().GetFeatureGroup(ctx.Context(), groupID); err != nil {
		return nil, mapError(err)
	}

	now := time.Now()
	t := &token.Token{
		ID:             id.NewTokenID(),
		Name:           token.NewName(),
		FeatureGroupID: groupID,
		ExpiresInDays:  req.ExpiresInDays,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := a.eng.Store().CreateToken(ctx.Context(), t); err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusCreated, t)
}

func (a *API) getToken(ctx forge.Context, _ *GetTokenRequest) (*token.Token, error) {
	tokenID, err := id.ParseTokenID(ctx.Param("tokenId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid token ID: %v", err))
	}

	t, err := a.eng.Store().GetToken(ctx.Context(), tokenID)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) deactivateToken(ctx forge.Context, _ *GetTokenRequest) (*struct{}, error) {
	tokenID, err := id.ParseTokenID(ctx.Param("tokenId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid token ID: %v", err))
	}

	if err := a.eng.Store().DeactivateToken(ctx.Context(), tokenID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listTokens(ctx forge.Context, req *ListTokensRequest) ([]*token.Token, error) {
	filter := &token.ListFilter{
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

	tokens, err := a.eng.Store().ListTokens(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return tokens, ctx.JSON(http.StatusOK, tokens)
}
