package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rabithua/chatmemo/common"
)

type SystemSettingName string

const (
	// SystemSettingSecretSessionName is the name of the JWT signing secret.
	SystemSettingSecretSessionName SystemSettingName = "secret-session"
)

type SystemSetting struct {
	Name        SystemSettingName
	Value       string
	Description string
}

type FindSystemSetting struct {
	Name *SystemSettingName
}

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO system_setting (
			name, value, description
		)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE
		SET
			value = EXCLUDED.value,
			description = EXCLUDED.description
	`
	if _, err := tx.ExecContext(ctx, query, upsert.Name, upsert.Value, upsert.Description); err != nil {
		return nil, FormatError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	return upsert, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	return listSystemSettings(ctx, tx, find)
}

// GetSystemSettingValue returns the value of the named setting, or "" if it is unset.
func (s *Store) GetSystemSettingValue(ctx context.Context, name SystemSettingName) (string, error) {
	list, err := s.ListSystemSettings(ctx, &FindSystemSetting{Name: &name})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].Value, nil
}

// GetOrCreateSecretSession returns the JWT signing secret, generating it on first use.
func (s *Store) GetOrCreateSecretSession(ctx context.Context) (string, error) {
	secret, err := s.GetSystemSettingValue(ctx, SystemSettingSecretSessionName)
	if err != nil {
		return "", err
	}
	if secret != "" {
		return secret, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", FormatError(err)
	}
	defer tx.Rollback()

	// Two servers starting on the same database keep whichever secret landed first.
	query := `
		INSERT INTO system_setting (name, value, description)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET name = name
		RETURNING value
	`
	if err := tx.QueryRowContext(ctx, query, SystemSettingSecretSessionName, common.GenUUID(), "JWT signing secret").Scan(&secret); err != nil {
		return "", FormatError(err)
	}
	if err := tx.Commit(); err != nil {
		return "", FormatError(err)
	}
	return secret, nil
}

func listSystemSettings(ctx context.Context, tx *sql.Tx, find *FindSystemSetting) ([]*SystemSetting, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.Name != nil {
		where, args = append(where, "name = ?"), append(args, *find.Name)
	}

	query := `
		SELECT
			name,
			value,
			description
		FROM system_setting
		WHERE ` + strings.Join(where, " AND ")
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, FormatError(err)
	}
	defer rows.Close()

	list := []*SystemSetting{}
	for rows.Next() {
		systemSetting := &SystemSetting{}
		if err := rows.Scan(
			&systemSetting.Name,
			&systemSetting.Value,
			&systemSetting.Description,
		); err != nil {
			return nil, FormatError(err)
		}
		list = append(list, systemSetting)
	}

	if err := rows.Err(); err != nil {
		return nil, FormatError(err)
	}

	return list, nil
}
