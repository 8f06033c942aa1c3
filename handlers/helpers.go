package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
)

var errInvalidBody = apperrors.Validation("Invalid request body")

// bindJSON decodes the request body only. Path and query values never
// leak into the request structs.
func bindJSON(c echo.Context, dest any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dest); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, errInvalidBody.Message, err)
	}
	return nil
}

// pageParams reads page and limit. Missing or malformed values come back
// as zero so the services apply their own defaults and bounds.
func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}
