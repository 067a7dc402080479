package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/dashboard"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	"github.com/trezcool/portal/services/throttle"
)

var errStudentNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc          *student.Service
	usrSvc       user.Service
	dashboardSvc *dashboard.Service
	validate     *validator.Validate
	limiter      throttle.Limiter
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:          deps.StudentSvc,
		usrSvc:       deps.UserSvc,
		dashboardSvc: deps.DashboardSvc,
		validate:     deps.Validate,
		limiter:      deps.Limiter,
	}

	sg := g.Group("/students")
	sg.POST("/login", api.login)

	ag := sg.Group("", jwt)
	ag.GET("", api.query, adminMiddleware())
	ag.POST("", api.create, adminMiddleware())

	dg := ag.Group("/:id", uuidParamMiddleware("id"), ctxStudentOrStaffMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.GET("/dashboard", api.dashboard)
}

// login is the authentication check of the student portal.
func (api *studentApi) login(ctx echo.Context) error {
	var data student.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	key := "student:" + data.Username
	if err := checkThrottle(ctx, api.limiter, key); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	profile, err := api.svc.Login(rctx, data.Username, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case student.ErrInvalidCredentials:
			return failThrottle(ctx, api.limiter, key)
		case student.ErrAccountDeactivated:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "logging student in")
	}
	if err = api.limiter.Reset(rctx, key); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "resetting login attempts"))
	}

	token, err := GenerateToken(GetUserClaims(profile.User))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, StudentLoginResponse{Token: token, Profile: profile})
}

func (api *studentApi) query(ctx echo.Context) error {
	q, err := bindListQuery(ctx, student.Columns)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	students, err := api.svc.Query(rctx, q)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	count, err := api.svc.Count(rctx, q.Filter)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	if students == nil {
		students = []student.Student{}
	}
	setTotalCount(ctx, count)
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.usrSvc.CheckUniqueness(data.Username, data.Email); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	profile, err := api.svc.GetProfile(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "getting student profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// students may only fix their contact details
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && (data.Name != "" || data.StudentNumber != "" || data.ClassName != "") {
		return errHttpForbidden
	}

	s, err = api.svc.Update(ctx.Request().Context(), s, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	s, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	dash, err := api.dashboardSvc.ForStudent(ctx.Request().Context(), s.ID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// ctxStudentOrStaffMiddleware loads the student `:id` for staff members and for the student themselves.
func ctxStudentOrStaffMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ok, err := canAccessStudent(ctx, ctx.Param("id"), svc)
			if err != nil {
				return errors.Wrap(err, "checking student access")
			}
			if ok {
				if s, err := svc.Get(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set(contextObjectKey, s)
					return next(ctx)
				} else if errors.Cause(err) != student.ErrNotFound {
					return errors.Wrap(err, "finding student by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type StudentLoginResponse struct {
	Token   string          `json:"token"`
	Profile student.Profile `json:"profile"`
}
