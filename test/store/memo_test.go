package teststore

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rabithua/chatmemo/common"
	"github.com/rabithua/chatmemo/store"
)

func TestMemoStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts, "alice")
	conversation := createTestingConversation(ctx, t, ts, user.ID, "Trip planning")
	find := &store.FindMemo{
		RequesterID:    user.ID,
		UserID:         &user.ID,
		ConversationID: &conversation.ID,
	}

	memo, err := ts.GetMemo(ctx, find)
	require.NoError(t, err)
	require.Nil(t, memo)

	draft, err := ts.UpsertMemo(ctx, &store.UpsertMemo{
		RequesterID:    user.ID,
		UserID:         user.ID,
		ConversationID: conversation.ID,
		Content:        "draft",
	})
	require.NoError(t, err)
	require.Equal(t, "draft", draft.Content)
	memo, err = ts.GetMemo(ctx, find)
	require.NoError(t, err)
	require.Equal(t, "draft", memo.Content)

	final, err := ts.UpsertMemo(ctx, &store.UpsertMemo{
		RequesterID:    user.ID,
		UserID:         user.ID,
		ConversationID: conversation.ID,
		Content:        "final",
	})
	require.NoError(t, err)
	require.Equal(t, draft.ID, final.ID)
	require.Equal(t, draft.CreatedTs, final.CreatedTs)
	require.GreaterOrEqual(t, final.UpdatedTs, draft.UpdatedTs)

	memoList, err := ts.ListMemos(ctx, find)
	require.NoError(t, err)
	require.Len(t, memoList, 1)
	require.Equal(t, "final", memoList[0].Content)

	deleteMemo := &store.DeleteMemo{
		RequesterID:    user.ID,
		UserID:         user.ID,
		ConversationID: conversation.ID,
	}
	require.NoError(t, ts.DeleteMemo(ctx, deleteMemo))
	memo, err = ts.GetMemo(ctx, find)
	require.NoError(t, err)
	require.Nil(t, memo)

	// Deleting again is a no-op.
	require.NoError(t, ts.DeleteMemo(ctx, deleteMemo))
	memo, err = ts.GetMemo(ctx, find)
	require.NoError(t, err)
	require.Nil(t, memo)
}

func TestUpsertMemoContentLength(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts, "alice")
	conversation := createTestingConversation(ctx, t, ts, user.ID, "Trip planning")
	find := &store.FindMemo{
		RequesterID:    user.ID,
		UserID:         &user.ID,
		ConversationID: &conversation.ID,
	}

	tests := []struct {
		content string
		code    common.Code
	}{
		{
			content: strings.Repeat("a", store.MaxMemoContentLength),
			code:    common.Ok,
		},
		{
			// Length is counted in characters, not bytes.
			content: strings.Repeat("é", store.MaxMemoContentLength),
			code:    common.Ok,
		},
		{
			content: strings.Repeat("a", store.MaxMemoContentLength+1),
			code:    common.Invalid,
		},
		{
			content: "",
			code:    common.Invalid,
		},
		{
			content: " \n\t",
			code:    common.Invalid,
		},
	}

	for _, test := range tests {
		_, err := ts.UpsertMemo(ctx, &store.UpsertMemo{
			RequesterID:    user.ID,
			UserID:         user.ID,
			ConversationID: conversation.ID,
			Content:        test.content,
		})
		require.Equal(t, test.code, common.ErrorCode(err))
		if test.code == common.Ok {
			memo, err := ts.GetMemo(ctx, find)
			require.NoError(t, err)
			require.Equal(t, test.content, memo.Content)
		}
	}

	// Rejected saves left the last accepted content untouched.
	memo, err := ts.GetMemo(ctx, find)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("é", store.MaxMemoContentLength), memo.Content)
}

func TestUpsertMemoTooLongCreatesNothing(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts, "alice")
	conversation := createTestingConversation(ctx, t, ts, user.ID, "Trip planning")

	_, err := ts.UpsertMemo(ctx, &store.UpsertMemo{
		RequesterID:    user.ID,
		UserID:         user.ID,
		ConversationID: conversation.ID,
		Content:        strings.Repeat("a", store.MaxMemoContentLength+1),
	})
	require.Equal(t, common.Invalid, common.ErrorCode(err))

	memoList, err := ts.ListMemos(ctx, &store.FindMemo{RequesterID: user.ID, UserID: &user.ID})
	require.NoError(t, err)
	require.Empty(t, memoList)
}

func TestUpsertMemoRejections(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	alice := createTestingUser(ctx, t, ts, "alice")
	bob := createTestingUser(ctx, t, ts, "bob")
	conversation := createTestingConversation(ctx, t, ts, alice.ID, "Trip planning")
	missingUserID := bob.ID + 100

	tests := []struct {
		name   string
		upsert *store.UpsertMemo
		code   common.Code
	}{
		{
			name: "requester is not the memo user",
			upsert: &store.UpsertMemo{
				RequesterID:    bob.ID,
				UserID:         alice.ID,
				ConversationID: conversation.ID,
				Content:        "hello",
			},
			code: common.NotAuthorized,
		},
		{
			name: "conversation owned by someone else",
			upsert: &store.UpsertMemo{
				RequesterID:    bob.ID,
				UserID:         bob.ID,
				ConversationID: conversation.ID,
				Content:        "hello",
			},
			code: common.NotAuthorized,
		},
		{
			name: "missing conversation",
			upsert: &store.UpsertMemo{
				RequesterID:    alice.ID,
				UserID:         alice.ID,
				ConversationID: conversation.ID + 100,
				Content:        "hello",
			},
			code: common.NotFound,
		},
		{
			name: "missing user",
			upsert: &store.UpsertMemo{
				RequesterID:    missingUserID,
				UserID:         missingUserID,
				ConversationID: conversation.ID,
				Content:        "hello",
			},
			code: common.NotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ts.UpsertMemo(ctx, test.upsert)
			require.Equal(t, test.code, common.ErrorCode(err))
		})
	}

	memoList, err := ts.ListMemos(ctx, &store.FindMemo{RequesterID: alice.ID, UserID: &alice.ID})
	require.NoError(t, err)
	require.Empty(t, memoList)

	_, err = ts.ListMemos(ctx, &store.FindMemo{RequesterID: bob.ID, UserID: &alice.ID})
	require.Equal(t, common.NotAuthorized, common.ErrorCode(err))
	err = ts.DeleteMemo(ctx, &store.DeleteMemo{RequesterID: bob.ID, UserID: alice.ID, ConversationID: conversation.ID})
	require.Equal(t, common.NotAuthorized, common.ErrorCode(err))
}

func TestUpsertMemoConcurrent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts, "alice")
	conversation := createTestingConversation(ctx, t, ts, user.ID, "Trip planning")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ts.UpsertMemo(ctx, &store.UpsertMemo{
				RequesterID:    user.ID,
				UserID:         user.ID,
				ConversationID: conversation.ID,
				Content:        strings.Repeat("x", i+1),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	memoList, err := ts.ListMemos(ctx, &store.FindMemo{RequesterID: user.ID, UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, memoList, 1)
}

func TestDeleteConversationRemovesMemo(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts, "alice")
	conversation := createTestingConversation(ctx, t, ts, user.ID, "Trip planning")
	other := createTestingConversation(ctx, t, ts, user.ID, "Groceries")

	for _, c := range []*store.Conversation{conversation, other} {
		_, err := ts.UpsertMemo(ctx, &store.UpsertMemo{
			RequesterID:    user.ID,
			UserID:         user.ID,
			ConversationID: c.ID,
			Content:        c.Title,
		})
		require.NoError(t, err)
	}

	require.NoError(t, ts.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID}))

	memoList, err := ts.ListMemos(ctx, &store.FindMemo{RequesterID: user.ID, UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, memoList, 1)
	require.Equal(t, other.ID, memoList[0].ConversationID)
}
