package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core/event"
	"github.com/kalimaclub/kalima/core/member"
)

type eventApi struct {
	svc       *event.Service
	memberSvc *member.Service
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *event.Service, memberSvc *member.Service) {
	api := eventApi{svc: svc, memberSvc: memberSvc}

	eg := g.Group("/events", jwt)

	eg.GET("", api.query)
	eg.POST("", api.create, committeeOrAdminMiddleware())
	eg.GET("/stats", api.stats, committeeOrAdminMiddleware())
	eg.POST("/checkin", api.checkInEvent)
	eg.POST("/class-checkin", api.checkInClass)
	eg.GET("/my-rsvps", api.queryMyRSVPs)
	eg.GET("/my-attendance", api.queryMyAttendance)

	dg := eg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, committeeOrAdminMiddleware())
	dg.DELETE("", api.destroy, committeeOrAdminMiddleware())
	dg.POST("/rsvp", api.rsvp)
	dg.DELETE("/rsvp", api.cancelRSVP)
	dg.GET("/rsvps", api.queryRSVPs, committeeOrAdminMiddleware())
	dg.GET("/attendance", api.queryAttendance, committeeOrAdminMiddleware())
}

// Handlers

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	evt, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) query(ctx echo.Context) error {
	events, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) rsvp(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	r, err := api.svc.RSVPToEvent(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		switch errors.Cause(err) {
		case event.ErrNotFound:
			return errHttpNotFound
		case event.ErrAlreadyRSVPed:
			return echo.NewHTTPError(http.StatusConflict, event.ErrAlreadyRSVPed.Error())
		}
		return errors.Wrap(err, "RSVPing to event")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *eventApi) cancelRSVP(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.svc.CancelRSVP(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "canceling RSVP")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) queryRSVPs(ctx echo.Context) error {
	rsvps, err := api.svc.EventRSVPs(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying event RSVPs")
	}
	return ctx.JSON(http.StatusOK, rsvps)
}

func (api *eventApi) queryMyRSVPs(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rsvps, err := api.svc.UserRSVPs(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying member RSVPs")
	}
	return ctx.JSON(http.StatusOK, rsvps)
}

func (api *eventApi) checkInEvent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data event.EventCheckIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventCheckIn")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	att, err := api.svc.CheckInEvent(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "checking in to event")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *eventApi) checkInClass(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data event.ClassCheckIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassCheckIn")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	att, err := api.svc.CheckInClass(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "checking in to class")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *eventApi) queryMyAttendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	records, err := api.svc.UserAttendance(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying member attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *eventApi) queryAttendance(ctx echo.Context) error {
	records, err := api.svc.EventAttendance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying event attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

// dashboardStats joins member and event totals for the admin dashboard.
// Aliases give the embedded fields distinct names; JSON output stays flat.
type memberTotals = member.Stats
type eventTotals = event.Stats

type dashboardStats struct {
	memberTotals
	eventTotals
}

func (api *eventApi) stats(ctx echo.Context) error {
	memberStats, err := api.memberSvc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying member stats")
	}
	eventStats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying event stats")
	}
	return ctx.JSON(http.StatusOK, dashboardStats{memberStats, eventStats})
}
