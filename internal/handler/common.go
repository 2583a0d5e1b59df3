package handler // handler defines http handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// serverError logs the underlying failure and responds with the generic 500
// shape. The raw error message is included in the body.
func serverError(c echo.Context, err error) error {
	log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"code": "SERVER_ERROR", "message": err.Error()})
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"code": "UNAUTHORIZED", "message": "not authenticated"})
}
