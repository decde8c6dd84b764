package service

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func listRecordings(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		res, err := data.Store.Search(c.Request().Context(), c.QueryParam("q"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getRecording(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		res, err := data.Store.GetRecording(c.Request().Context(), c.Param("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getRecordingAudio(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		res, err := data.Store.GetAudio(c.Request().Context(), c.Param("id"))
		if err != nil {
			return httpError(err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+c.Param("id")+`.wav"`)
		return c.Blob(http.StatusOK, "audio/wav", res)
	}
}

func deleteRecording(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.Store.DeleteRecording(c.Request().Context(), c.Param("id")); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}
