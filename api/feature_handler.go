package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/id"
)

func (a *API) registerFeatureRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("features"))

	if err := g.POST("/features", a.createFeature,
		forge.WithSummary("Create feature"),
		forge.WithDescription("Creates a new feature."),
		forge.WithOperationID("createFeature"),
		forge.WithRequestSchema(CreateFeatureRequest{}),
		forge.WithCreatedResponse(&feature.Feature{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/features/:featureId", a.getFeature,
		forge.WithSummary("Get feature"),
		forge.WithDescription("Returns details of a specific feature."),
		forge.WithOperationID("getFeature"),
		forge.WithResponseSchema(http.StatusOK, "Feature details", &feature.Feature{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/features/:featureId", a.updateFeature,
		forge.WithSummary("Update feature"),
		forge.WithDescription("Updates an existing feature."),
		forge.WithOperationID("updateFeature"),
		forge.WithRequestSchema(UpdateFeatureRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated feature", &feature.Feature{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/features/:featureId", a.deactivateFeature,
		forge.WithSummary("Deactivate feature"),
		forge.WithDescription("Soft-deletes a feature. The row survives because groups may still reference it."),
		forge.WithOperationID("deactivateFeature"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/features", a.listFeatures,
		forge.WithSummary("List features"),
		forge.WithDescription("Lists features with optional filters."),
		forge.WithOperationID("listFeatures"),
		forge.WithRequestSchema(ListFeaturesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Feature list", []*feature.Feature{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createFeature(ctx forge.Context, req *CreateFeatureRequest) (*feature.Feature, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	now := time.Now()
	f := &feature.Feature{
		ID:          id.NewFeatureID(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.eng.Store().CreateFeature(ctx.Context(), f); err != nil {
		return nil, mapError(err)
	}

	return f, ctx.JSON(http.StatusCreated, f)
}

func (a *API) getFeature(ctx forge.Context, _ *GetFeatureRequest) (*feature.Feature, error) {
	featureID, err := id.ParseFeatureID(ctx.Param("featureId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature ID: %v", err))
	}

	f, err := a.eng.Store().GetFeature(ctx.Context(), featureID)
	if err != nil {
		return nil, mapError(err)
	}

	return f, ctx.JSON(http.StatusOK, f)
}

func (a *API) updateFeature(ctx forge.Context, req *UpdateFeatureRequest) (*feature.Feature, error) {
	featureID, err := id.ParseFeatureID(ctx.Param("featureId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature ID: %v", err))
	}

	f, err := a.eng.Store().GetFeature(ctx.Context(), featureID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	f.UpdatedAt = time.Now()

	if err := a.eng.Store().UpdateFeature(ctx.Context(), f); err != nil {
		return nil, mapError(err)
	}

	return f, ctx.JSON(http.StatusOK, f)
}

func (a *API) deactivateFeature(ctx forge.Context, _ *GetFeatureRequest) (*struct{}, error) {
	featureID, err := id.ParseFeatureID(ctx.Param("featureId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid feature ID: %v", err))
	}

	if err := a.eng.Store().DeactivateFeature(ctx.Context(), featureID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listFeatures(ctx forge.Context, req *ListFeaturesRequest) ([]*feature.Feature, error) {
	filter := &feature.ListFilter{
		IsActive: req.IsActive,
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	features, err := a.eng.Store().ListFeatures(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return features, ctx.JSON(http.StatusOK, features)
}
