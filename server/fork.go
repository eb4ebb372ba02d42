package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rabithua/chatmemo/api"
	"github.com/rabithua/chatmemo/store"
)

func (s *Server) registerForkRoutes(g *echo.Group) {
	g.POST("/conversation/:conversationId/fork", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}
		conversationID, err := getIDParam(c, "conversationId")
		if err != nil {
			return err
		}
		if _, err := s.getOwnedConversation(ctx, userID, conversationID); err != nil {
			return err
		}

		// The body is optional.
		request := &api.ForkConversationRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(request); err != nil && err != io.EOF {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformatted fork conversation request").SetInternal(err)
		}
		if err := request.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}

		conversation, err := s.Store.ForkConversation(ctx, &store.ForkConversation{
			ParentID:  conversationID,
			CreatorID: userID,
			Title:     request.Title,
		})
		if err != nil {
			return httpError(err, "Failed to fork conversation")
		}

		return c.JSON(http.StatusOK, composeResponse(convertConversationFromStore(conversation)))
	})

	g.GET("/conversation/:conversationId/fork", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}
		conversationID, err := getIDParam(c, "conversationId")
		if err != nil {
			return err
		}
		if _, err := s.getOwnedConversation(ctx, userID, conversationID); err != nil {
			return err
		}

		navigation, err := s.Store.GetForkNavigation(ctx, conversationID)
		if err != nil {
			return httpError(err, "Failed to find forks")
		}

		return c.JSON(http.StatusOK, composeResponse(convertForkNavigationFromStore(navigation)))
	})
}

func convertForkNavigationFromStore(navigation *store.ForkNavigation) *api.ForkNavigation {
	result := &api.ForkNavigation{
		Mode:         api.ForkModeRoot,
		Conversation: convertConversationFromStore(navigation.Conversation),
		Forks:        []*api.Conversation{},
	}
	if navigation.IsFork() {
		result.Mode = api.ForkModeFork
		result.Parent = convertConversationFromStore(navigation.Parent)
	}
	for _, fork := range navigation.Forks {
		result.Forks = append(result.Forks, convertConversationFromStore(fork))
	}
	return result
}
