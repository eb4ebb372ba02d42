package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rabithua/chatmemo/common"
)

// MaxMemoContentLength is the maximum number of characters in a memo.
const MaxMemoContentLength = 2000

// Memo is a private note a user keeps on one conversation.
// There is at most one memo per user and conversation.
type Memo struct {
	ID int

	// Standard fields
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	UserID         int
	ConversationID int
	Content        string
}

type UpsertMemo struct {
	// RequesterID is the authenticated identity performing the save.
	RequesterID    int
	UserID         int
	ConversationID int
	Content        string
}

type FindMemo struct {
	RequesterID    int
	UserID         *int
	ConversationID *int
}

type DeleteMemo struct {
	RequesterID    int
	UserID         int
	ConversationID int
}

// ValidateMemoContent rejects empty content and content longer than MaxMemoContentLength characters.
func ValidateMemoContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &common.Error{Code: common.Invalid, Err: fmt.Errorf("memo content must not be empty")}
	}
	if length := utf8.RuneCountInString(content); length > MaxMemoContentLength {
		return &common.Error{Code: common.Invalid, Err: fmt.Errorf("memo content is too long: %d characters, max %d", length, MaxMemoContentLength)}
	}
	return nil
}

func checkRequester(requesterID, userID int) error {
	if requesterID != userID {
		return &common.Error{Code: common.NotAuthorized, Err: fmt.Errorf("memo of user %d is not accessible by user %d", userID, requesterID)}
	}
	return nil
}

// UpsertMemo creates the memo for the user and conversation, or overwrites its content.
// The id and created_ts of an existing memo are kept.
func (s *Store) UpsertMemo(ctx context.Context, upsert *UpsertMemo) (*Memo, error) {
	if err := ValidateMemoContent(upsert.Content); err != nil {
		return nil, err
	}
	if err := checkRequester(upsert.RequesterID, upsert.UserID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	if _, err := requireUser(ctx, tx, upsert.UserID); err != nil {
		return nil, err
	}
	conversation, err := requireConversation(ctx, tx, upsert.ConversationID)
	if err != nil {
		return nil, err
	}
	if conversation.CreatorID != upsert.UserID {
		return nil, &common.Error{Code: common.NotAuthorized, Err: fmt.Errorf("conversation %d is not owned by user %d", conversation.ID, upsert.UserID)}
	}

	memo, err := upsertMemo(ctx, tx, upsert, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	return memo, nil
}

// GetMemo returns the memo for the user and conversation, or nil if there is none.
func (s *Store) GetMemo(ctx context.Context, find *FindMemo) (*Memo, error) {
	list, err := s.ListMemos(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListMemos returns the memos of one user, most recently updated first.
func (s *Store) ListMemos(ctx context.Context, find *FindMemo) ([]*Memo, error) {
	if find.UserID == nil {
		return nil, &common.Error{Code: common.Invalid, Err: fmt.Errorf("user id is required to find memos")}
	}
	if err := checkRequester(find.RequesterID, *find.UserID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	return listMemos(ctx, tx, find)
}

// DeleteMemo removes the memo if there is one. Deleting a missing memo is not an error.
func (s *Store) DeleteMemo(ctx context.Context, delete *DeleteMemo) error {
	if err := checkRequester(delete.RequesterID, delete.UserID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return FormatError(err)
	}
	defer tx.Rollback()

	stmt := `DELETE FROM conversation_memo WHERE user_id = ? AND conversation_id = ?`
	if _, err := tx.ExecContext(ctx, stmt, delete.UserID, delete.ConversationID); err != nil {
		return FormatError(err)
	}

	return FormatError(tx.Commit())
}

func upsertMemo(ctx context.Context, tx *sql.Tx, upsert *UpsertMemo, now int64) (*Memo, error) {
	set := []string{"user_id", "conversation_id", "content", "created_ts", "updated_ts"}
	args := []any{upsert.UserID, upsert.ConversationID, upsert.Content, now, now}
	placeholder := []string{"?", "?", "?", "?", "?"}

	// A single statement so concurrent saves cannot both insert; the later one updates.
	query := `
		INSERT INTO conversation_memo (
			` + strings.Join(set, ", ") + `
		)
		VALUES (` + strings.Join(placeholder, ",") + `)
		ON CONFLICT(user_id, conversation_id) DO UPDATE
		SET
			content = EXCLUDED.content,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, user_id, conversation_id, content, created_ts, updated_ts
	`
	var memo Memo
	if err := tx.QueryRowContext(ctx, query, args...).Scan(
		&memo.ID,
		&memo.UserID,
		&memo.ConversationID,
		&memo.Content,
		&memo.CreatedTs,
		&memo.UpdatedTs,
	); err != nil {
		return nil, FormatError(err)
	}

	return &memo, nil
}

func listMemos(ctx context.Context, tx *sql.Tx, find *FindMemo) ([]*Memo, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *v)
	}

	query := `
		SELECT
			id,
			user_id,
			conversation_id,
			content,
			created_ts,
			updated_ts
		FROM conversation_memo
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC
	`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, FormatError(err)
	}
	defer rows.Close()

	memoList := make([]*Memo, 0)
	for rows.Next() {
		var memo Memo
		if err := rows.Scan(
			&memo.ID,
			&memo.UserID,
			&memo.ConversationID,
			&memo.Content,
			&memo.CreatedTs,
			&memo.UpdatedTs,
		); err != nil {
			return nil, FormatError(err)
		}
		memoList = append(memoList, &memo)
	}

	if err := rows.Err(); err != nil {
		return nil, FormatError(err)
	}

	return memoList, nil
}
