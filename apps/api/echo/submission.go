package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type submissionApi struct {
	svc       *submission.Service
	userSvc   *user.Service
	artifacts core.ArtifactStore
}

func registerSubmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *submission.Service,
	userSvc *user.Service,
	artifacts core.ArtifactStore,
) {
	api := submissionApi{svc: svc, userSvc: userSvc, artifacts: artifacts}

	sg := g.Group("/submissions", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.POST("/:id/grade", api.grade)
}

// Handlers

// create accepts either a JSON body or a multipart form with an optional
// `file` part; an uploaded file is stored and its URL attached to the
// submission.
func (api *submissionApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data submission.NewSubmission
	if isMultipart(ctx) {
		if err := api.bindMultipart(ctx, ctxUsr, &data); err != nil {
			return err
		}
	} else if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) bindMultipart(ctx echo.Context, ctxUsr user.User, data *submission.NewSubmission) error {
	data.AssignmentID = ctx.FormValue("assignment_id")
	data.Content = ctx.FormValue("content")

	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil // no file part; content-only form
	}
	if err = submission.ValidateArtifact(fh.Filename, fh.Size); err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	ref, err := api.artifacts.Store(ctx.Request().Context(), ctxUsr.ID, data.AssignmentID, fh.Filename, f)
	if err != nil {
		return errors.Wrap(err, "storing artifact")
	}
	data.FileURL = api.artifacts.Resolve(ref)
	return nil
}

func (api *submissionApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.QueryForStudent(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) grade(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data submission.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
