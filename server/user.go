package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rabithua/chatmemo/api"
	"github.com/rabithua/chatmemo/store"
)

func (s *Server) registerUserRoutes(g *echo.Group) {
	g.GET("/user/me", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}

		user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to find user").SetInternal(err)
		}
		if user == nil {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}

		return c.JSON(http.StatusOK, composeResponse(convertUserFromStore(user)))
	})
}

func convertUserFromStore(user *store.User) *api.User {
	return &api.User{
		ID:        user.ID,
		RowStatus: api.RowStatus(user.RowStatus.String()),
		CreatedTs: user.CreatedTs,
		UpdatedTs: user.UpdatedTs,
		Username:  user.Username,
		Nickname:  user.Nickname,
	}
}
