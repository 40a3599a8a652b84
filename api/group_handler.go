package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/id"
)

func (a *API) registerGroupRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("feature-groups"))

	if err := g.POST("/feature-groups", a.createGroup,
		forge.WithSummary("Create feature group"),
		forge.WithDescription("Creates a new feature group."),
		forge.WithOperationID("createFeatureGroup"),
		forge.WithRequestSchema(CreateGroupRequest{}),
		forge.WithCreatedResponse(&feature.FeatureGroup{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/feature-groups/:groupId", a.getGroup,
		forge.WithSummary("Get feature group"),
		forge.WithDescription("Returns details of a specific feature group."),
		forge.WithOperationID("getFeatureGroup"),
		forge.WithResponseSchema(http.StatusOK, "Feature group details", &feature.FeatureGroup{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/feature-groups/:groupId", a.updateGroup,
		forge.WithSummary("Update feature group"),
		forge.WithDescription("Updates an existing feature group."),
		forge.WithOperationID("updateFeatureGroup"),
		forge.WithRequestSchema(UpdateGroupRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated feature group", &feature.FeatureGroup{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/feature-groups", a.listGroups,
		forge.WithSummary("List feature groups"),
		forge.WithDescription("Lists feature groups with optional filters."),
		forge.WithOperationID("listFeatureGroups"),
		forge.WithRequestSchema(ListGroupsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Feature group list", []*feature.FeatureGroup{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/feature-groups/:groupId/features", a.listGroupFeatures,
		forge.WithSummary("List group features"),
		forge.WithDescription("Returns all features bundled in a group."),
		forge.WithOperationID("listGroupFeatures"),
		forge.WithResponseSchema(http.StatusOK, "Feature list", []*feature.Feature{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/feature-groups/:groupId/features", a.addGroupFeature,
		forge.WithSummary("Add feature to group"),
		forge.WithDescription("Bundles a feature into a group."),
		forge.WithOperationID("addGroupFeature"),
		forge.WithRequestSchema(AddGroupFeatureRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/feature-groups/:groupId/features/:featureId", a.removeGroupFeature,
		forge.WithSummary("Remove feature from group"),
		forge.WithDescription("Unbundles a feature from a group."),
		forge.WithOperationID("removeGroupFeature"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGroup(ctx forge.Context, req *CreateGroupRequest) (*feature.FeatureGroup, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	if req.AppName == "" {
		return nil, forge.BadRequest("app_name is required")
	}

	now := time.Now()
	g := &feature.FeatureGroup{
		ID:          id.NewFeatureGroupID(),
		Name:        req.Name,
		AppName:     req.AppName,
		Description: req.Description,
		IsPaid:      req.IsPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.eng.Store().CreateFeatureGroup(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) getGroup(ctx forge.Context, _ *GetGroupRequest) (*feature.FeatureGroup, error) {
	groupID, err := id.ParseFeatureGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	g, err := a.eng.Store().GetFeatureGroup(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) updateGroup(ctx forge.Context, req *UpdateGroupRequest) (*feature.FeatureGroup, error) {
	groupID, err := id.ParseFeatureGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	g, err := a.eng.Store().GetFeatureGroup(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.IsPaid != nil {
		g.IsPaid = *req.IsPaid
	}
	g.UpdatedAt = time.Now()

	if err := a.eng.Store().UpdateFeatureGroup(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) listGroups(ctx forge.Context, req *ListGroupsRequest) ([]*feature.FeatureGroup, error) {
	filter := &feature.GroupListFilter{
		IsPaid: req.IsPaid,
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	groups, err := a.eng.Store().ListFeatureGroups(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return groups, ctx.JSON(http.StatusOK, groups)
}

func (a *API) listGroupFeatures(ctx forge.Context, _ *GetGroupRequest) ([]*feature.Feature, error) {
	groupID, err := id.ParseFeatureGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	features, err := a.eng.Store().ListGroupFeatures(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return features, ctx.JSON(http.StatusOK, features)
}

func (a *API) addGroupFeature(ctx forge.Context, req *AddGroupFeatureRequest) (*struct{}, error) {
	groupID, err := id.ParseFeatureGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	featureID, err := id.ParseFeatureID(req.FeatureID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature ID: %v", err))
	}

	if err := a.eng.Store().AddFeatureToGroup(ctx.Context(), groupID, featureID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) removeGroupFeature(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	groupID, err := id.ParseFeatureGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature group ID: %v", err))
	}

	featureID, err := id.ParseFeatureID(ctx.Param("featureId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature ID: %v", err))
	}

	if err := a.eng.Store().RemoveFeatureFromGroup(ctx.Context(), groupID, featureID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
