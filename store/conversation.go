package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/rabithua/chatmemo/common"
)

type Conversation struct {
	ID int

	// Standard fields
	RowStatus RowStatus
	CreatorID int
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Title    string
	ParentID *int
}

// IsFork reports whether the conversation was branched from another one.
func (c *Conversation) IsFork() bool {
	return c.ParentID != nil
}

type FindConversation struct {
	ID *int

	// Standard fields
	RowStatus *RowStatus
	CreatorID *int

	// Domain specific fields
	ParentID *int
}

type UpdateConversation struct {
	ID        int
	UpdatedTs *int64
	RowStatus *RowStatus
	Title     *string
}

type DeleteConversation struct {
	ID int
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	if _, err := requireUser(ctx, tx, create.CreatorID); err != nil {
		return nil, err
	}
	if create.ParentID != nil {
		parent, err := requireConversation(ctx, tx, *create.ParentID)
		if err != nil {
			return nil, err
		}
		if err := checkForkParent(create.CreatorID, parent); err != nil {
			return nil, err
		}
	}

	conversation, err := createConversation(ctx, tx, create)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	s.conversationCache.Set(strconv.Itoa(conversation.ID), *conversation, cache.DefaultExpiration)
	return conversation, nil
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	list, err := listConversations(ctx, tx, find)
	if err != nil {
		return nil, err
	}

	for _, conversation := range list {
		s.conversationCache.Set(strconv.Itoa(conversation.ID), *conversation, cache.DefaultExpiration)
	}
	return list, nil
}

// GetConversation returns the matching conversation, or nil if there is none.
// Lookups by ID alone are served from the cache when possible.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	if find.ID != nil && find.RowStatus == nil && find.CreatorID == nil && find.ParentID == nil {
		if cached, ok := s.conversationCache.Get(strconv.Itoa(*find.ID)); ok {
			conversation := cached.(Conversation)
			return &conversation, nil
		}
	}

	list, err := s.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	if update.UpdatedTs == nil {
		now := time.Now().Unix()
		update.UpdatedTs = &now
	}
	set, args := []string{"updated_ts = ?"}, []any{*update.UpdatedTs}
	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = ?"), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = ?"), append(args, *v)
	}
	args = append(args, update.ID)

	query := `
		UPDATE conversation
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
		RETURNING id, created_ts, updated_ts, row_status, creator_id, title, parent_id
	`
	conversation, err := scanConversation(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if common.ErrorCode(err) == common.NotFound {
			return nil, &common.Error{Code: common.NotFound, Err: fmt.Errorf("conversation %d not found", update.ID)}
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	s.conversationCache.Set(strconv.Itoa(conversation.ID), *conversation, cache.DefaultExpiration)
	return conversation, nil
}

// DeleteConversation removes the conversation together with its memos.
// Its forks become root conversations.
func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return FormatError(err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM conversation WHERE id = ?`, delete.ID)
	if err != nil {
		return FormatError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &common.Error{Code: common.NotFound, Err: fmt.Errorf("conversation %d not found", delete.ID)}
	}

	if err := tx.Commit(); err != nil {
		return FormatError(err)
	}

	// Forks cached with the old parent pointer are stale too.
	s.conversationCache.Flush()
	return nil
}

func createConversation(ctx context.Context, tx *sql.Tx, create *Conversation) (*Conversation, error) {
	query := `
		INSERT INTO conversation (
			creator_id,
			title,
			parent_id
		)
		VALUES (?, ?, ?)
		RETURNING id, created_ts, updated_ts, row_status, creator_id, title, parent_id
	`
	return scanConversation(tx.QueryRowContext(ctx, query, create.CreatorID, create.Title, create.ParentID))
}

func listConversations(ctx context.Context, tx *sql.Tx, find *FindConversation) ([]*Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "row_status = ?"), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = ?"), append(args, *v)
	}
	if v := find.ParentID; v != nil {
		where, args = append(where, "parent_id = ?"), append(args, *v)
	}

	query := `
		SELECT
			id,
			created_ts,
			updated_ts,
			row_status,
			creator_id,
			title,
			parent_id
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC
	`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, FormatError(err)
	}
	defer rows.Close()

	conversationList := make([]*Conversation, 0)
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversationList = append(conversationList, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, FormatError(err)
	}

	return conversationList, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var conversation Conversation
	var parentID sql.NullInt64
	if err := row.Scan(
		&conversation.ID,
		&conversation.CreatedTs,
		&conversation.UpdatedTs,
		&conversation.RowStatus,
		&conversation.CreatorID,
		&conversation.Title,
		&parentID,
	); err != nil {
		return nil, FormatError(err)
	}
	if parentID.Valid {
		id := int(parentID.Int64)
		conversation.ParentID = &id
	}
	return &conversation, nil
}

// requireConversation returns a NotFound error unless the conversation exists.
func requireConversation(ctx context.Context, tx *sql.Tx, conversationID int) (*Conversation, error) {
	list, err := listConversations(ctx, tx, &FindConversation{ID: &conversationID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &common.Error{Code: common.NotFound, Err: fmt.Errorf("conversation %d not found", conversationID)}
	}
	return list[0], nil
}
