package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/domain"
	"github.com/airenas/stream-decoder/internal/utils"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Data keeps data required for service work
type Data struct {
	Port         int
	Sessions     *SessionManager
	Store        RecordingStore
	PushInterval time.Duration
	Ctx          context.Context
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting decoder service at %d", data.Port)
	if err := validate(data); err != nil {
		return nil, err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		if err := gracehttp.Serve(e.Server); err != nil {
			goapp.Log.Error().Err(err).Msg("can't start web server")
		}
		goapp.Log.Info().Msg("exit http routine")
	}()
	return res, nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("decoder_service", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	promMdlw.Use(e)

	e.GET("/live", live(data))

	e.POST("/sessions", createSession(data))
	e.POST("/sessions/:id/audio", addAudio(data))
	e.POST("/sessions/:id/finish", finishSession(data))
	e.POST("/sessions/:id/reset", resetSession(data))
	e.GET("/sessions/:id/result", sessionResult(data))
	e.GET("/sessions/:id/timed", sessionTimed(data))
	e.DELETE("/sessions/:id", deleteSession(data))

	e.GET("/client/ws/speech", subscribe(data))

	if data.Store != nil {
		e.GET("/recordings", listRecordings(data))
		e.GET("/recordings/:id", getRecording(data))
		e.GET("/recordings/:id/audio", getRecordingAudio(data))
		e.DELETE("/recordings/:id", deleteRecording(data))
	}

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func validate(data *Data) error {
	if data.Sessions == nil {
		return fmt.Errorf("no Sessions")
	}
	if data.PushInterval <= 0 {
		return fmt.Errorf("wrong PushInterval %v", data.PushInterval)
	}
	if data.Ctx == nil {
		return fmt.Errorf("no Ctx")
	}
	return nil
}

type idResult struct {
	ID string `json:"id"`
}

type textResult struct {
	Result   string `json:"result"`
	Finished bool   `json:"finished"`
	Error    string `json:"error,omitempty"`
}

type timedResult struct {
	Timed json.RawMessage `json:"timed"`
	Next  int             `json:"next"`
}

func createSession(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		id, err := data.Sessions.Create()
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusCreated, idResult{ID: id})
	}
}

func addAudio(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't read body")
		}
		if len(body)%2 != 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "odd PCM byte count")
		}
		if err := data.Sessions.AddAudio(c.Param("id"), utils.ToSamples(body)); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusAccepted)
	}
}

func finishSession(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.Sessions.Finish(c.Param("id")); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusAccepted)
	}
}

func resetSession(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		defer cancel()
		if err := data.Sessions.Reset(ctx, c.Param("id")); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func sessionResult(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ctrl, err := data.Sessions.Controller(c.Param("id"))
		if err != nil {
			return httpError(err)
		}
		res := textResult{Result: ctrl.GetResult(), Finished: ctrl.GetFinished()}
		if err := ctrl.Err(); err != nil {
			res.Error = err.Error()
		}
		return c.JSON(http.StatusOK, res)
	}
}

func sessionTimed(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ctrl, err := data.Sessions.Controller(c.Param("id"))
		if err != nil {
			return httpError(err)
		}
		offsetStr := c.QueryParam("offset")
		if offsetStr == "" {
			return c.JSONBlob(http.StatusOK, []byte(ctrl.GetTimedResult()))
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "wrong offset")
		}
		timed, next := ctrl.GetTimedResultSince(offset)
		return c.JSON(http.StatusOK, timedResult{Timed: json.RawMessage(timed), Next: next})
	}
}

func deleteSession(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		defer cancel()
		if err := data.Sessions.Delete(ctx, c.Param("id")); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrContractViolation):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
