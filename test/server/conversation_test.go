package testserver

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rabithua/chatmemo/api"
)

func TestConversationServer(t *testing.T) {
	ctx := context.Background()
	s := NewTestingServer(ctx, t)
	s.signUp(t, "alice")

	conversation := &api.Conversation{}
	s.requestData(t, http.MethodPost, "/api/conversation", &api.CreateConversationRequest{Title: "Trip planning"}, http.StatusOK, conversation)
	require.Equal(t, "Trip planning", conversation.Title)
	require.Nil(t, conversation.ParentID)
	uri := fmt.Sprintf("/api/conversation/%d", conversation.ID)

	title := "Trip to Lisbon"
	archived := api.Archived
	updated := &api.Conversation{}
	s.requestData(t, http.MethodPatch, uri, &api.UpdateConversationRequest{Title: &title, RowStatus: &archived}, http.StatusOK, updated)
	require.Equal(t, title, updated.Title)
	require.Equal(t, api.Archived, updated.RowStatus)

	list := []*api.Conversation{}
	s.requestData(t, http.MethodGet, "/api/conversation?rowStatus=ARCHIVED", nil, http.StatusOK, &list)
	require.Len(t, list, 1)
	list = []*api.Conversation{}
	s.requestData(t, http.MethodGet, "/api/conversation?rowStatus=NORMAL", nil, http.StatusOK, &list)
	require.Empty(t, list)
	s.requestData(t, http.MethodGet, "/api/conversation?rowStatus=GONE", nil, http.StatusBadRequest, nil)

	// Other users cannot see the conversation.
	s.signUp(t, "bob")
	s.requestData(t, http.MethodGet, uri, nil, http.StatusForbidden, nil)
	s.requestData(t, http.MethodDelete, uri, nil, http.StatusForbidden, nil)

	s.requestData(t, http.MethodGet, "/api/conversation/abc", nil, http.StatusBadRequest, nil)
	s.requestData(t, http.MethodGet, fmt.Sprintf("/api/conversation/%d", conversation.ID+100), nil, http.StatusNotFound, nil)
}

func TestForkServer(t *testing.T) {
	ctx := context.Background()
	s := NewTestingServer(ctx, t)
	s.signUp(t, "alice")

	root := &api.Conversation{}
	s.requestData(t, http.MethodPost, "/api/conversation", &api.CreateConversationRequest{Title: "Trip planning"}, http.StatusOK, root)
	rootURI := fmt.Sprintf("/api/conversation/%d/fork", root.ID)

	navigation := &api.ForkNavigation{}
	s.requestData(t, http.MethodGet, rootURI, nil, http.StatusOK, navigation)
	require.Equal(t, api.ForkModeRoot, navigation.Mode)
	require.Nil(t, navigation.Parent)
	require.Empty(t, navigation.Forks)

	fork := &api.Conversation{}
	s.requestData(t, http.MethodPost, rootURI, nil, http.StatusOK, fork)
	require.Equal(t, root.ID, *fork.ParentID)
	require.Equal(t, "Trip planning (fork)", fork.Title)

	named := &api.Conversation{}
	s.requestData(t, http.MethodPost, rootURI, &api.ForkConversationRequest{Title: "Budget option"}, http.StatusOK, named)
	require.Equal(t, "Budget option", named.Title)

	navigation = &api.ForkNavigation{}
	s.requestData(t, http.MethodGet, rootURI, nil, http.StatusOK, navigation)
	require.Equal(t, api.ForkModeRoot, navigation.Mode)
	require.Len(t, navigation.Forks, 2)

	forkURI := fmt.Sprintf("/api/conversation/%d/fork", fork.ID)
	navigation = &api.ForkNavigation{}
	s.requestData(t, http.MethodGet, forkURI, nil, http.StatusOK, navigation)
	require.Equal(t, api.ForkModeFork, navigation.Mode)
	require.Equal(t, root.ID, navigation.Parent.ID)
	require.Equal(t, fork.ID, navigation.Conversation.ID)

	// Forks are one level deep.
	s.requestData(t, http.MethodPost, forkURI, nil, http.StatusBadRequest, nil)
}
