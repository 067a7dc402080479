package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/resource"
)

type resourceApi struct {
	svc       *resource.Service
	courseSvc *course.Service
	validate  *validator.Validate
}

func registerResourceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := resourceApi{
		svc:       deps.ResourceSvc,
		courseSvc: deps.CourseSvc,
		validate:  deps.Validate,
	}

	rg := g.Group("/resources", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create, staffMiddleware)
	rg.GET("/:id", api.retrieve, uuidParamMiddleware("id"))
	rg.DELETE("/:id", api.destroy, uuidParamMiddleware("id"), staffMiddleware)
}

func (api *resourceApi) query(ctx echo.Context) error {
	q, err := bindListQuery(ctx, resource.Columns)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	resources, err := api.svc.Query(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}
	count, err := api.svc.Count(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting resources")
	}
	if resources == nil {
		resources = []resource.Resource{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, resources)
}

func (api *resourceApi) create(ctx echo.Context) error {
	var data resource.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()
	if data.CourseID != "" {
		if _, err := api.courseSvc.Get(rctx, data.CourseID); err != nil {
			return errors.Wrap(err, "finding course by ID")
		}
	}

	r, err := api.svc.Create(rctx, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating resource")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *resourceApi) retrieve(ctx echo.Context) error {
	r, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding resource by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *resourceApi) destroy(ctx echo.Context) error {
	cnt, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting resource")
	}
	if cnt == 0 {
		return resource.ErrNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}
