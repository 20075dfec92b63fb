package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core/member"
)

var errPrfNotFoundInCtx = errors.New("profile object not found in echo.Context")

type memberApi struct {
	svc *member.Service
}

func registerMemberAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *member.Service) {
	api := memberApi{svc: svc}

	mg := g.Group("/members", jwt)

	// signup completes on the first authenticated call
	mg.POST("", api.create)
	mg.GET("/me", api.retrieveMe)

	// admin endpoints
	mg.GET("", api.query, adminMiddleware())
	mg.DELETE("", api.destroyMultiple, adminMiddleware())
	mg.GET("/roles", api.queryRoles, adminMiddleware())
	mg.GET("/pending-verifications", api.pendingVerifications, adminMiddleware())

	// detail endpoints
	dg := mg.Group("/:id", ctxMemberOrStaffMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.POST("/verify", api.verify, adminMiddleware())
	dg.PUT("/role", api.updateRole, adminMiddleware())
	dg.PUT("/class", api.assignClass, adminMiddleware())
	dg.POST("/payments", api.recordPayment)
	dg.GET("/payments", api.queryPayments)
	dg.POST("/grades", api.recordGrade, tutorMiddleware())
	dg.GET("/grades", api.queryGrades)
	dg.GET("/grades/stats", api.gradeStats)
	dg.POST("/level-up", api.verifyLevelUp, tutorMiddleware())
	dg.GET("/certificates", api.queryCertificates)
	dg.GET("/level-verifications", api.queryLevelVerifications)
}

// Handlers

func (api *memberApi) create(ctx echo.Context) error {
	var data member.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// the profile belongs to the authenticated subject
	data.ID = claims.Subject
	if data.Email == "" {
		data.Email = claims.Email
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prf, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, prf)
}

func (api *memberApi) retrieveMe(ctx echo.Context) error {
	prf, err := getContextProfile(ctx, api.svc)
	if err != nil {
		if errors.Cause(err) == member.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting context profile")
	}
	return ctx.JSON(http.StatusOK, prf)
}

func (api *memberApi) query(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	profiles, err := api.svc.QueryAll(ctx.Request().Context(), ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}
	return ctx.JSON(http.StatusOK, prf)
}

func (api *memberApi) destroyMultiple(ctx echo.Context) error {
	var data destroyMultipleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to destroyMultipleRequest")
	}
	if data.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxMember cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	for _, id := range data.IDs {
		if id == claims.Subject {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), data.IDs...); err != nil {
		return errors.Wrap(err, "deleting members")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, member.AllRoles)
}

func (api *memberApi) pendingVerifications(ctx echo.Context) error {
	profiles, err := api.svc.PendingVerifications(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pending verifications")
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *memberApi) verify(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	var data member.MemberVerification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MemberVerification")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prf, err := api.svc.VerifyMember(ctx.Request().Context(), prf.ID, *data.Approved)
	if err != nil {
		return errors.Wrap(err, "verifying member")
	}
	return ctx.JSON(http.StatusOK, prf)
}

func (api *memberApi) updateRole(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	var data member.RoleUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RoleUpdate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prf, err := api.svc.UpdateRole(ctx.Request().Context(), prf.ID, data.Role)
	if err != nil {
		return errors.Wrap(err, "updating role")
	}
	return ctx.JSON(http.StatusOK, prf)
}

func (api *memberApi) assignClass(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	var data member.ClassAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prf, err := api.svc.AssignClass(ctx.Request().Context(), prf.ID, data.ClassName, data.Level)
	if err != nil {
		if errors.Cause(err) == member.ErrNotTutor {
			return echo.NewHTTPError(http.StatusBadRequest, member.ErrNotTutor.Error())
		}
		return errors.Wrap(err, "assigning class")
	}
	return ctx.JSON(http.StatusOK, prf)
}

func (api *memberApi) recordPayment(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	var data member.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	pmt, err := api.svc.RecordPayment(ctx.Request().Context(), prf.ID, data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *memberApi) queryPayments(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	payments, err := api.svc.Payments(ctx.Request().Context(), prf.ID)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *memberApi) recordGrade(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data member.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	data.StudentID = prf.ID
	data.GradedBy = claims.Subject
	if err := data.Validate(); err != nil {
		return err
	}

	grd, err := api.svc.RecordGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *memberApi) queryGrades(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	grades, err := api.svc.Grades(ctx.Request().Context(), prf.ID, queryLevel(ctx))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *memberApi) gradeStats(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	level := queryLevel(ctx)
	if level == 0 {
		level = prf.CurrentLevel()
	}
	stats, err := api.svc.GradeStats(ctx.Request().Context(), prf.ID, level)
	if err != nil {
		return errors.Wrap(err, "querying grade stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *memberApi) verifyLevelUp(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data member.LevelUpDecision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LevelUpDecision")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.VerifyLevelUp(ctx.Request().Context(), prf.ID, claims.Subject, *data.Approved, data.TutorNotes)
	if err != nil {
		return errors.Wrap(err, "verifying level up")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *memberApi) queryCertificates(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	certs, err := api.svc.Certificates(ctx.Request().Context(), prf.ID)
	if err != nil {
		return errors.Wrap(err, "querying certificates")
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *memberApi) queryLevelVerifications(ctx echo.Context) error {
	prf, ok := ctx.Get(objectContextKey).(member.Profile)
	if !ok {
		return errPrfNotFoundInCtx
	}

	lvs, err := api.svc.LevelVerifications(ctx.Request().Context(), prf.ID)
	if err != nil {
		return errors.Wrap(err, "querying level verifications")
	}
	return ctx.JSON(http.StatusOK, lvs)
}

func queryLevel(ctx echo.Context) int {
	if lvl, err := strconv.Atoi(ctx.QueryParam("level")); err == nil && lvl > 0 {
		return lvl
	}
	return 0
}

type destroyMultipleRequest struct {
	IDs []string `query:"id"`
}
