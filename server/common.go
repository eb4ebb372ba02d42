package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rabithua/chatmemo/common"
)

func composeResponse(data any) any {
	type R struct {
		Data any `json:"data"`
	}

	return R{
		Data: data,
	}
}

// httpError maps an application error onto an HTTP status.
// message is shown for errors without an application code.
func httpError(err error, message string) *echo.HTTPError {
	switch common.ErrorCode(err) {
	case common.Invalid:
		return echo.NewHTTPError(http.StatusBadRequest, common.ErrorMessage(err)).SetInternal(err)
	case common.NotFound:
		return echo.NewHTTPError(http.StatusNotFound, common.ErrorMessage(err)).SetInternal(err)
	case common.NotAuthorized:
		return echo.NewHTTPError(http.StatusForbidden, common.ErrorMessage(err)).SetInternal(err)
	case common.Conflict:
		return echo.NewHTTPError(http.StatusConflict, common.ErrorMessage(err)).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, message).SetInternal(err)
	}
}

func getUserID(c echo.Context) (int, error) {
	userID, ok := c.Get(getUserIDContextKey()).(int)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Missing user in session")
	}
	return userID, nil
}

func getIDParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("ID is not a number: %s", c.Param(name))).SetInternal(err)
	}
	return id, nil
}
