package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core/member"
)

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.IsAdmin() })
}

func tutorMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.IsTutor() || claims.IsAdmin() })
}

func committeeOrAdminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.IsCommittee() || claims.IsAdmin() })
}

func roleMiddleware(allowed func(Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ctxMemberOrStaffMiddleware guards member detail endpoints: the member
// themselves or any staff (tutor, committee, admin) may pass. The target
// profile is stashed in the context as "object".
func ctxMemberOrStaffMiddleware(svc *member.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			id := ctx.Param("id")
			if id == claims.Subject || claims.IsStaff() {
				prf, err := svc.GetByID(ctx.Request().Context(), id)
				if err == nil {
					ctx.Set(objectContextKey, prf)
					return next(ctx)
				} else if err != member.ErrNotFound {
					return errors.Wrap(err, "finding member by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
