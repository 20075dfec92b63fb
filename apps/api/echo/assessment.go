package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core/assessment"
)

type assessmentApi struct {
	svc *assessment.Service
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assessment.Service) {
	api := assessmentApi{svc: svc}

	ag := g.Group("/assessments", jwt)

	ag.GET("", api.query)
	ag.POST("", api.create, tutorMiddleware())
	ag.GET("/my-submissions", api.queryMySubmissions)
	ag.GET("/submissions/:id", api.querySubmissions, tutorMiddleware())
	ag.POST("/:id/submit", api.submit)
}

// Handlers

func (api *assessmentApi) create(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asm, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, asm)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	assessments, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *assessmentApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data assessment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.AssessmentID = ctx.Param("id")
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == assessment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "submitting assessment")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assessmentApi) queryMySubmissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	subs, err := api.svc.Submissions(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying member submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assessmentApi) querySubmissions(ctx echo.Context) error {
	subs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}
