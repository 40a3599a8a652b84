package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel"
	"github.com/officegrid/sentinel/permission"
	"github.com/officegrid/sentinel/principal"
)

func (a *API) registerAuthorizeRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/authorize", a.authorize,
		forge.WithSummary("Authorization decision"),
		forge.WithDescription("Runs the full decision pipeline and returns the decision with its visibility predicate."),
		forge.WithOperationID("authzAuthorize"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision", AuthorizeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", AuthorizeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) authorize(ctx forge.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.Operation == "" {
		return nil, forge.BadRequest("operation is required")
	}

	d, err := a.eng.Authorize(ctx.Context(), toAuthorizeRequest(req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toAuthorizeResponse(d)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.Operation == "" {
		return nil, forge.BadRequest("operation is required")
	}

	d, err := a.eng.Authorize(ctx.Context(), toAuthorizeRequest(req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toAuthorizeResponse(d)
	if !d.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toAuthorizeRequest(r *AuthorizeRequest) *sentinel.Request {
	req := &sentinel.Request{
		Operation: r.Operation,
		Require:   sentinel.Requirements{Public: r.Public},
		Meta: sentinel.RequestMeta{
			Query: r.Query,
			Body:  r.Body,
			Path:  r.Path,
		},
	}

	if r.Principal != nil {
		req.Principal = &principal.Principal{
			ID:       r.Principal.ID,
			OfficeID: r.Principal.OfficeID,
			Role:     principal.Role(r.Principal.Role),
			Granted:  r.Principal.Granted,
			Banned:   r.Principal.Banned,
			Scope:    r.Principal.Scope,
		}
	}

	for _, name := range r.Roles {
		req.Require.Roles = append(req.Require.Roles, principal.Role(name))
	}
	for _, name := range r.Permissions {
		req.Require.Permissions = append(req.Require.Permissions, permission.Permission(name))
	}
	if r.Feature != nil {
		req.Require.Feature = &sentinel.FeatureRef{
			Group:     r.Feature.Group,
			Feature:   r.Feature.Feature,
			Operation: r.Feature.Operation,
		}
	}

	return req
}

func toAuthorizeResponse(d *sentinel.Decision) *AuthorizeResponse {
	return &AuthorizeResponse{
		Allowed:    d.Allowed,
		Reason:     string(d.Reason),
		Predicate:  d.Predicate,
		OfficeID:   d.OfficeID,
		EvalTimeNs: d.EvalTimeNs,
	}
}
