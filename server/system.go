package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type systemStatus struct {
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	Version string `json:"version"`
}

func (s *Server) registerSystemRoutes(g *echo.Group) {
	g.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, composeResponse(&systemStatus{
			Status:  "ok",
			Mode:    s.Profile.Mode,
			Version: s.Profile.Version,
		}))
	})
}
