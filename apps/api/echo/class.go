package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core/event"
	"github.com/kalimaclub/kalima/core/member"
)

type classApi struct {
	memberSvc *member.Service
	eventSvc  *event.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, memberSvc *member.Service, eventSvc *event.Service) {
	api := classApi{memberSvc: memberSvc, eventSvc: eventSvc}

	cg := g.Group("/classes", jwt)

	cg.GET("", api.query)
	cg.GET("/mine", api.retrieveMine, tutorMiddleware())
}

// tutorClassResponse is the tutor's class dashboard: their class, the student
// roster and the class check-in records.
type tutorClassResponse struct {
	Class      *member.ClassInfo  `json:"class"`
	Students   []member.Profile   `json:"students"`
	Attendance []event.Attendance `json:"attendance"`
}

// Handlers

func (api *classApi) query(ctx echo.Context) error {
	classes, err := api.memberSvc.Classes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieveMine(ctx echo.Context) error {
	prf, err := getContextProfile(ctx, api.memberSvc)
	if err != nil {
		if errors.Cause(err) == member.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting context profile")
	}

	res := tutorClassResponse{
		Students:   make([]member.Profile, 0),
		Attendance: make([]event.Attendance, 0),
	}
	if prf.AssignedClass == "" {
		return ctx.JSON(http.StatusOK, res)
	}

	level := prf.AssignedLevel
	if level < member.MinLevel {
		level = member.MinLevel
	}
	res.Class = &member.ClassInfo{
		TutorID:   prf.ID,
		TutorName: prf.Name,
		ClassName: prf.AssignedClass,
		Level:     level,
	}

	if res.Students, err = api.memberSvc.Filter(ctx.Request().Context(), member.QueryFilter{Roles: []string{member.RoleStudent}}); err != nil {
		return errors.Wrap(err, "querying students")
	}
	if res.Attendance, err = api.eventSvc.ClassAttendance(ctx.Request().Context(), prf.AssignedClass); err != nil {
		return errors.Wrap(err, "querying class attendance")
	}
	return ctx.JSON(http.StatusOK, res)
}
