package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func respond(c echo.Context, status int, message string, data interface{}) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return c.JSON(status, APIResponse{Status: status, Message: message, Data: data})
}

// SuccessResponse writes a 200 envelope around data.
func SuccessResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusOK, "", data)
}

// BadRequestResponse writes a 400 envelope carrying validation details.
func BadRequestResponse(c echo.Context, details interface{}) error {
	return respond(c, http.StatusBadRequest, "invalid request", details)
}

// AppErrorResponse writes err as an envelope. Errors that are not an AppError
// become a bare 500 so internal details never leak.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return respond(c, http.StatusInternalServerError, "", nil)
	}
	return respond(c, appErr.Status, appErr.Message, []*AppError{appErr})
}
