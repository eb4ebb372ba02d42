package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rabithua/chatmemo/api"
	"github.com/rabithua/chatmemo/store"
)

func (s *Server) registerConversationRoutes(g *echo.Group) {
	g.POST("/conversation", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}

		create := &api.CreateConversationRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(create); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformatted post conversation request").SetInternal(err)
		}
		if err := create.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}

		conversation, err := s.Store.CreateConversation(ctx, &store.Conversation{
			CreatorID: userID,
			Title:     create.Title,
		})
		if err != nil {
			return httpError(err, "Failed to create conversation")
		}

		return c.JSON(http.StatusOK, composeResponse(convertConversationFromStore(conversation)))
	})

	g.GET("/conversation", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}

		find := &store.FindConversation{
			CreatorID: &userID,
		}
		if rowStatus := api.RowStatus(c.QueryParam("rowStatus")); rowStatus != "" {
			if !rowStatus.IsValid() {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid row status %q", rowStatus))
			}
			storeRowStatus := store.RowStatus(rowStatus)
			find.RowStatus = &storeRowStatus
		}

		list, err := s.Store.ListConversations(ctx, find)
		if err != nil {
			return httpError(err, "Failed to fetch conversation list")
		}

		conversationList := []*api.Conversation{}
		for _, conversation := range list {
			conversationList = append(conversationList, convertConversationFromStore(conversation))
		}
		return c.JSON(http.StatusOK, composeResponse(conversationList))
	})

	g.GET("/conversation/:conversationId", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := getUserID(c)
		if err != nil {
			return err
		}
		conversationID, err := getIDParam(c, "conversationId")
		if err != nil {
			return err
		}

		conversation, err := s.getOwnedConversation(ctx, userID, conversationID)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, composeResponse(convertConversationFromStore(conversation)))
	})

	g.PATCH("/conversation/:conversationId", func(c echo.Context) error {
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

		patch := &api.UpdateConversationRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(patch); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformatted patch conversation request").SetInternal(err)
		}
		if err := patch.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}

		update := &store.UpdateConversation{
			ID:    conversationID,
			Title: patch.Title,
		}
		if patch.RowStatus != nil {
			rowStatus := store.RowStatus(*patch.RowStatus)
			update.RowStatus = &rowStatus
		}
		conversation, err := s.Store.UpdateConversation(ctx, update)
		if err != nil {
			return httpError(err, "Failed to patch conversation")
		}

		return c.JSON(http.StatusOK, composeResponse(convertConversationFromStore(conversation)))
	})

	g.DELETE("/conversation/:conversationId", func(c echo.Context) error {
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

		if err := s.Store.DeleteConversation(ctx, &store.DeleteConversation{ID: conversationID}); err != nil {
			return httpError(err, "Failed to delete conversation")
		}

		return c.JSON(http.StatusOK, true)
	})
}

// getOwnedConversation returns 404 for a missing conversation and 403 for one owned by someone else.
func (s *Server) getOwnedConversation(ctx context.Context, userID, conversationID int) (*store.Conversation, error) {
	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		return nil, httpError(err, "Failed to find conversation")
	}
	if conversation == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Conversation not found: %d", conversationID))
	}
	if conversation.CreatorID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Conversation belongs to another user")
	}
	return conversation, nil
}

func convertConversationFromStore(conversation *store.Conversation) *api.Conversation {
	return &api.Conversation{
		ID:        conversation.ID,
		RowStatus: api.RowStatus(conversation.RowStatus.String()),
		CreatorID: conversation.CreatorID,
		CreatedTs: conversation.CreatedTs,
		UpdatedTs: conversation.UpdatedTs,
		Title:     conversation.Title,
		ParentID:  conversation.ParentID,
	}
}
