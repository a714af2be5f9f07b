// Package web exposes metrics and the controller over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/joperezr/SmartHomePi/internal/controller"
	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Home is what the HTTP front end needs from a controller.
type Home interface {
	SetLightBulbState(ctx context.Context, id int, on bool) error
	GetLightBulbStates(ctx context.Context) ([]smarthome.LightBulbState, error)
	GetEnvironment(ctx context.Context) (smarthome.Environment, error)
}

type stateRequest struct {
	State *bool `json:"state"`
}

type errorResponse struct {
	Message      string `json:"message"`
	DeviceStatus int    `json:"deviceStatus,omitempty"`
}

// CreateHandler serves only /metrics.
func CreateHandler() http.Handler {
	return newEcho()
}

// CreateControllerHandler serves /metrics plus the bulb and environment
// routes backed by home.
func CreateControllerHandler(home Home) http.Handler {
	e := newEcho()

	e.GET("/bulbs", func(c echo.Context) error {
		states, err := home.GetLightBulbStates(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, states)
	})

	e.PUT("/bulbs/:id", func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "bulb id must be an integer"})
		}

		req := new(stateRequest)
		if err := c.Bind(req); err != nil || req.State == nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: `body must be {"state": true|false}`})
		}

		if err := home.SetLightBulbState(c.Request().Context(), id, *req.State); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, smarthome.SwitchedResult(id, *req.State))
	})

	e.GET("/environment", func(c echo.Context) error {
		env, err := home.GetEnvironment(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, env)
	})

	return e
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func writeError(c echo.Context, err error) error {
	logging.Warn("%s %s failed: %s", c.Request().Method, c.Path(), err)

	var se *controller.StatusError
	switch {
	case errors.As(err, &se):
		return c.JSON(http.StatusBadGateway, errorResponse{Message: err.Error(), DeviceStatus: se.Status})
	case errors.Is(err, controller.ErrTimeout):
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
	}
}
