package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rabithua/chatmemo/api"
	"github.com/rabithua/chatmemo/plugin/markdown"
	"github.com/rabithua/chatmemo/store"
)

func (s *Server) registerMemoRoutes(g *echo.Group) {
	g.PUT("/conversation/:conversationId/memo", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}
		conversationID, err := getIDParam(c, "conversationId")
		if err != nil {
			return err
		}

		request := &api.UpsertMemoRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(request); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformatted upsert memo request").SetInternal(err)
		}

		memo, err := s.Store.UpsertMemo(ctx, &store.UpsertMemo{
			RequesterID:    userID,
			UserID:         userID,
			ConversationID: conversationID,
			Content:        request.Content,
		})
		if err != nil {
			return httpError(err, "Failed to save memo")
		}

		return c.JSON(http.StatusOK, composeResponse(convertMemoFromStore(memo)))
	})

	g.GET("/conversation/:conversationId/memo", func(c echo.Context) error {
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

		memo, err := s.Store.GetMemo(ctx, &store.FindMemo{
			RequesterID:    userID,
			UserID:         &userID,
			ConversationID: &conversationID,
		})
		if err != nil {
			return httpError(err, "Failed to find memo")
		}
		if memo == nil {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Memo not found for conversation: %d", conversationID))
		}

		memoResponse := convertMemoFromStore(memo)
		if render := c.QueryParam("render"); render != "" {
			if render != "html" {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unsupported render format %q", render))
			}
			html, err := markdown.RenderHTML(memo.Content)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render memo").SetInternal(err)
			}
			memoResponse.HTML = html
		}

		return c.JSON(http.StatusOK, composeResponse(memoResponse))
	})

	g.DELETE("/conversation/:conversationId/memo", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}
		conversationID, err := getIDParam(c, "conversationId")
		if err != nil {
			return err
		}

		if err := s.Store.DeleteMemo(ctx, &store.DeleteMemo{
			RequesterID:    userID,
			UserID:         userID,
			ConversationID: conversationID,
		}); err != nil {
			return httpError(err, "Failed to delete memo")
		}

		return c.JSON(http.StatusOK, composeResponse(&api.DeleteMemoResponse{Deleted: true}))
	})

	g.GET("/memo", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}

		list, err := s.Store.ListMemos(ctx, &store.FindMemo{
			RequesterID: userID,
			UserID:      &userID,
		})
		if err != nil {
			return httpError(err, "Failed to fetch memo list")
		}

		memoList := []*api.Memo{}
		for _, memo := range list {
			memoList = append(memoList, convertMemoFromStore(memo))
		}
		return c.JSON(http.StatusOK, composeResponse(memoList))
	})
}

func convertMemoFromStore(memo *store.Memo) *api.Memo {
	return &api.Memo{
		ID:             memo.ID,
		CreatedTs:      memo.CreatedTs,
		UpdatedTs:      memo.UpdatedTs,
		UserID:         memo.UserID,
		ConversationID: memo.ConversationID,
		Content:        memo.Content,
	}
}
