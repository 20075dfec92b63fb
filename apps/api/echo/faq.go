package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kalimaclub/kalima/core"
	"github.com/kalimaclub/kalima/core/faq"
)

type faqApi struct{}

func registerFAQAPI(g *echo.Group) {
	api := faqApi{}

	// no auth; the bot only serves public club info
	g.POST("/faq/ask", api.ask)
}

func (api *faqApi) ask(ctx echo.Context) error {
	var data askRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to askRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, askResponse{Answer: faq.Ask(data.Question)})
}

type (
	askRequest struct {
		Question string `json:"question" validate:"required"`
	}

	askResponse struct {
		Answer string `json:"answer"`
	}
)

func (ar *askRequest) Validate() error {
	ar.Question = core.CleanString(ar.Question)
	return core.Validate.Struct(ar)
}
