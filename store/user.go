package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rabithua/chatmemo/common"
)

type User struct {
	ID int

	// Standard fields
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Username     string
	Nickname     string
	PasswordHash string
}

type FindUser struct {
	ID        *int
	RowStatus *RowStatus
	Username  *string
}

type UpdateUser struct {
	ID int

	UpdatedTs    *int64
	RowStatus    *RowStatus
	Nickname     *string
	PasswordHash *string
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO user (
			username,
			nickname,
			password_hash
		)
		VALUES (?, ?, ?)
		RETURNING id, created_ts, updated_ts, row_status
	`
	if err := tx.QueryRowContext(ctx, query,
		create.Username,
		create.Nickname,
		create.PasswordHash,
	).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, FormatError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	user := create
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	set, args := []string{}, []any{}
	if update.UpdatedTs == nil {
		now := time.Now().Unix()
		update.UpdatedTs = &now
	}
	set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = ?"), append(args, *v)
	}
	if v := update.Nickname; v != nil {
		set, args = append(set, "nickname = ?"), append(args, *v)
	}
	if v := update.PasswordHash; v != nil {
		set, args = append(set, "password_hash = ?"), append(args, *v)
	}
	args = append(args, update.ID)

	query := `
		UPDATE user
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
		RETURNING id, created_ts, updated_ts, row_status, username, nickname, password_hash
	`
	user := &User{}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.CreatedTs,
		&user.UpdatedTs,
		&user.RowStatus,
		&user.Username,
		&user.Nickname,
		&user.PasswordHash,
	); err != nil {
		return nil, FormatError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	return listUsers(ctx, tx, find)
}

// GetUser returns the first matching user, or nil if none matches.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	list, err := listUsers(ctx, tx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func listUsers(ctx context.Context, tx *sql.Tx, find *FindUser) ([]*User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "row_status = ?"), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "username = ?"), append(args, *v)
	}

	query := `
		SELECT
			id,
			created_ts,
			updated_ts,
			row_status,
			username,
			nickname,
			password_hash
		FROM user
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, FormatError(err)
	}
	defer rows.Close()

	userList := make([]*User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.CreatedTs,
			&user.UpdatedTs,
			&user.RowStatus,
			&user.Username,
			&user.Nickname,
			&user.PasswordHash,
		); err != nil {
			return nil, FormatError(err)
		}
		userList = append(userList, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, FormatError(err)
	}

	return userList, nil
}

// requireUser returns a NotFound error unless the user exists.
func requireUser(ctx context.Context, tx *sql.Tx, userID int) (*User, error) {
	list, err := listUsers(ctx, tx, &FindUser{ID: &userID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &common.Error{Code: common.NotFound, Err: fmt.Errorf("user %d not found", userID)}
	}
	return list[0], nil
}
