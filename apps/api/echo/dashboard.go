package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/user"
)

type dashboardApi struct {
	svc     *dashboard.Service
	userSvc *user.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *dashboard.Service, userSvc *user.Service) {
	api := dashboardApi{svc: svc, userSvc: userSvc}
	g.GET("/dashboard", api.retrieve, jwt)
}

// retrieve returns the stats matching the caller's role.
func (api *dashboardApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqCtx := ctx.Request().Context()
	if ctxUsr.IsTeacher() {
		stats, err := api.svc.TeacherStats(reqCtx, ctxUsr)
		if err != nil {
			return errors.Wrap(err, "computing teacher stats")
		}
		return ctx.JSON(http.StatusOK, stats)
	}

	stats, err := api.svc.StudentStats(reqCtx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "computing student stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
