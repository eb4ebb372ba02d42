package testserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rabithua/chatmemo/api"
)

func TestMemoServer(t *testing.T) {
	ctx := context.Background()
	s := NewTestingServer(ctx, t)
	user := s.signUp(t, "alice")

	conversation := &api.Conversation{}
	s.requestData(t, http.MethodPost, "/api/conversation", &api.CreateConversationRequest{Title: "Trip planning"}, http.StatusOK, conversation)
	uri := fmt.Sprintf("/api/conversation/%d/memo", conversation.ID)

	s.requestData(t, http.MethodGet, uri, nil, http.StatusNotFound, nil)

	draft := &api.Memo{}
	s.requestData(t, http.MethodPut, uri, &api.UpsertMemoRequest{Content: "draft"}, http.StatusOK, draft)
	require.Equal(t, "draft", draft.Content)
	require.Equal(t, user.ID, draft.UserID)
	require.Equal(t, conversation.ID, draft.ConversationID)

	memo := &api.Memo{}
	s.requestData(t, http.MethodGet, uri, nil, http.StatusOK, memo)
	require.Equal(t, "draft", memo.Content)
	require.Empty(t, memo.HTML)

	final := &api.Memo{}
	s.requestData(t, http.MethodPut, uri, &api.UpsertMemoRequest{Content: "**final**"}, http.StatusOK, final)
	require.Equal(t, draft.ID, final.ID)
	require.Equal(t, draft.CreatedTs, final.CreatedTs)

	memo = &api.Memo{}
	s.requestData(t, http.MethodGet, uri+"?render=html", nil, http.StatusOK, memo)
	require.Equal(t, "**final**", memo.Content)
	require.Equal(t, "<p><strong>final</strong></p>\n", memo.HTML)
	s.requestData(t, http.MethodGet, uri+"?render=pdf", nil, http.StatusBadRequest, nil)

	memoList := []*api.Memo{}
	s.requestData(t, http.MethodGet, "/api/memo", nil, http.StatusOK, &memoList)
	require.Len(t, memoList, 1)

	deleted := &api.DeleteMemoResponse{}
	s.requestData(t, http.MethodDelete, uri, nil, http.StatusOK, deleted)
	require.True(t, deleted.Deleted)
	s.requestData(t, http.MethodGet, uri, nil, http.StatusNotFound, nil)

	// Deleting again still succeeds.
	deleted = &api.DeleteMemoResponse{}
	s.requestData(t, http.MethodDelete, uri, nil, http.StatusOK, deleted)
	require.True(t, deleted.Deleted)
}

func TestMemoServerRejections(t *testing.T) {
	ctx := context.Background()
	s := NewTestingServer(ctx, t)
	s.signUp(t, "alice")

	conversation := &api.Conversation{}
	s.requestData(t, http.MethodPost, "/api/conversation", &api.CreateConversationRequest{Title: "Trip planning"}, http.StatusOK, conversation)
	uri := fmt.Sprintf("/api/conversation/%d/memo", conversation.ID)

	s.requestData(t, http.MethodPut, uri, &api.UpsertMemoRequest{Content: strings.Repeat("a", 2001)}, http.StatusBadRequest, nil)
	s.requestData(t, http.MethodPut, uri, &api.UpsertMemoRequest{Content: ""}, http.StatusBadRequest, nil)
	s.requestData(t, http.MethodGet, uri, nil, http.StatusNotFound, nil)

	code, _, err := s.request(http.MethodPut, uri, "not an object")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, code)

	s.requestData(t, http.MethodPut, fmt.Sprintf("/api/conversation/%d/memo", conversation.ID+100), &api.UpsertMemoRequest{Content: "hello"}, http.StatusNotFound, nil)

	memo := &api.Memo{}
	s.requestData(t, http.MethodPut, uri, &api.UpsertMemoRequest{Content: "mine"}, http.StatusOK, memo)

	// Bob can neither read nor overwrite Alice's memo.
	s.signUp(t, "bob")
	s.requestData(t, http.MethodGet, uri, nil, http.StatusForbidden, nil)
	s.requestData(t, http.MethodPut, uri, &api.UpsertMemoRequest{Content: "bob"}, http.StatusForbidden, nil)

	memoList := []*api.Memo{}
	s.requestData(t, http.MethodGet, "/api/memo", nil, http.StatusOK, &memoList)
	require.Empty(t, memoList)

	s.accessToken = ""
	s.requestData(t, http.MethodGet, uri, nil, http.StatusUnauthorized, nil)
}
