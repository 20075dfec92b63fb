package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/member"
)

const (
	claimsContextKey  = "memberToken"
	profileContextKey = "profile"
	objectContextKey  = "object"
)

// Claims represents the authorization claims transmitted via a JWT. Tokens are
// issued by the identity provider; this API only verifies them with the shared
// secret.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (c Claims) IsTutor() bool     { return c.Role == member.RoleTutor }
func (c Claims) IsCommittee() bool { return c.Role == member.RoleCommittee }
func (c Claims) IsAdmin() bool     { return c.Role == member.RoleAdmin }

// IsStaff reports whether the role outranks a plain student.
func (c Claims) IsStaff() bool {
	return member.RolePriority(c.Role) > member.RolePriority(member.RoleStudent)
}

func newAppJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(Claims),
	}
}

// GetProfileClaims builds the claims the identity provider would issue for a
// member. Used by tests and local tooling.
func GetProfileClaims(conf *core.Config, prf member.Profile) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   prf.ID,
			ExpiresAt: now.Add(time.Hour).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  prf.Name,
		Email: prf.Email,
		Role:  prf.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextProfile(ctx echo.Context, svc *member.Service, clms ...Claims) (member.Profile, error) {
	if prf, ok := ctx.Get(profileContextKey).(member.Profile); ok {
		return prf, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return member.Profile{}, errors.Wrap(err, "getting context claims")
		}
	}

	prf, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return member.Profile{}, errors.Wrap(err, "finding member by ID")
	}
	ctx.Set(profileContextKey, prf)
	return prf, nil
}
