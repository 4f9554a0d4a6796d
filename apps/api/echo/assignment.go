package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type assignmentApi struct {
	svc     *assignment.Service
	enrSvc  *enrollment.Service
	subSvc  *submission.Service
	userSvc *user.Service
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *assignment.Service,
	enrSvc *enrollment.Service,
	subSvc *submission.Service,
	userSvc *user.Service,
) {
	api := assignmentApi{svc: svc, enrSvc: enrSvc, subSvc: subSvc, userSvc: userSvc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id/submissions", api.querySubmissions)
}

// CourseworkItem is a student's view of an assignment: the assignment plus a
// display status derived from their submission (or its absence) and the grade
// once one is recorded.
type CourseworkItem struct {
	assignment.Assignment
	Status     string                 `json:"status"`
	Submission *submission.Submission `json:"submission,omitempty"`
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	a, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// query lists the caller's own assignments with submission counts for teachers
// and the coursework of enrolled courses with derived statuses for students.
func (api *assignmentApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if ctxUsr.IsTeacher() {
		infos, err := api.svc.QueryForTeacher(ctx.Request().Context(), ctxUsr)
		if err != nil {
			return errors.Wrap(err, "querying teacher assignments")
		}
		if infos == nil {
			infos = []assignment.Info{}
		}
		return ctx.JSON(http.StatusOK, infos)
	}
	return api.queryCoursework(ctx, ctxUsr)
}

func (api *assignmentApi) queryCoursework(ctx echo.Context, ctxUsr user.User) error {
	reqCtx := ctx.Request().Context()

	enrs, err := api.enrSvc.QueryActiveForStudent(reqCtx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	courseIDs := make([]string, 0, len(enrs))
	for _, enr := range enrs {
		courseIDs = append(courseIDs, enr.CourseID)
	}

	asgs, err := api.svc.QueryPublishedForCourses(reqCtx, courseIDs)
	if err != nil {
		return errors.Wrap(err, "querying coursework")
	}
	subs, err := api.subSvc.QueryForStudent(reqCtx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	byAssignment := make(map[string]*submission.Submission, len(subs))
	for i := range subs {
		byAssignment[subs[i].AssignmentID] = &subs[i]
	}

	now := submission.NowFunc().UTC()
	items := make([]CourseworkItem, 0, len(asgs))
	for _, a := range asgs {
		sub := byAssignment[a.ID]
		items = append(items, CourseworkItem{
			Assignment: a,
			Status:     submission.DeriveStatus(a, sub, now),
			Submission: sub,
		})
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.subSvc.QueryForAssignment(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying assignment submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
