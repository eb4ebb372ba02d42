package store

import (
	"database/sql"
	"errors"

	"github.com/rabithua/chatmemo/common"
	"github.com/rabithua/chatmemo/store/db"
)

// RowStatus is the status for a row.
type RowStatus string

const (
	// Normal is the status for a normal row.
	Normal RowStatus = "NORMAL"
	// Archived is the status for an archived row.
	Archived RowStatus = "ARCHIVED"
)

func (r RowStatus) String() string {
	switch r {
	case Normal:
		return "NORMAL"
	case Archived:
		return "ARCHIVED"
	}
	return ""
}

// FormatError converts driver errors into application errors where the caller can act on them.
func FormatError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &common.Error{Code: common.NotFound, Err: errors.New("data not found")}
	case db.IsUniqueConstraintError(err):
		return &common.Error{Code: common.Conflict, Err: errors.New("data already exists")}
	default:
		return err
	}
}
