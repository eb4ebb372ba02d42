package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rabithua/chatmemo/common/log"
	"github.com/rabithua/chatmemo/server/profile"
	"github.com/rabithua/chatmemo/server/version"
)

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

type DB struct {
	// sqlite db connection instance
	DBInstance *sql.DB
	profile    *profile.Profile
}

// NewDB returns a new instance of DB associated with the given datasource name.
func NewDB(profile *profile.Profile) *DB {
	db := &DB{
		profile: profile,
	}
	return db
}

func (db *DB) Open(ctx context.Context) (err error) {
	// Ensure a DSN is set before attempting to open the database.
	if db.profile.DSN == "" {
		return fmt.Errorf("dsn required")
	}

	_, statErr := os.Stat(db.profile.DSN)
	isFresh := errors.Is(statErr, os.ErrNotExist)

	// busy_timeout waits on a locked database instead of failing at once.
	// foreign_keys is needed for the ON DELETE clauses of the schema.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", db.profile.DSN)
	sqliteDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return errors.Wrapf(err, "failed to open db with dsn: %s", db.profile.DSN)
	}
	// SQLite allows a single writer.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	if err := sqliteDB.PingContext(ctx); err != nil {
		sqliteDB.Close()
		if IsCantOpenError(err) {
			return errors.Wrapf(err, "cannot create database at %q", db.profile.DSN)
		}
		return err
	}
	db.DBInstance = sqliteDB

	if isFresh {
		if err := db.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := db.upsertMigrationHistory(ctx, version.GetSchemaVersion(db.profile.Version)); err != nil {
			return errors.Wrap(err, "failed to upsert migration history")
		}
		// Demo mode ships with sample data.
		if db.profile.Mode == "demo" {
			if err := db.seed(ctx); err != nil {
				return errors.Wrap(err, "failed to seed")
			}
		}
		return nil
	}

	if db.profile.Mode == "prod" {
		if err := db.migrate(ctx); err != nil {
			return errors.Wrap(err, "failed to migrate")
		}
	}

	return nil
}

func (db *DB) Close() error {
	if db.DBInstance == nil {
		return nil
	}
	return db.DBInstance.Close()
}

// migrate applies every versioned migration newer than the latest recorded one,
// up to the current schema version.
func (db *DB) migrate(ctx context.Context) error {
	currentSchemaVersion := version.GetSchemaVersion(db.profile.Version)
	migrationHistoryList, err := db.findMigrationHistoryList(ctx)
	if err != nil {
		return err
	}
	if len(migrationHistoryList) == 0 {
		return db.upsertMigrationHistory(ctx, currentSchemaVersion)
	}

	latestVersion := migrationHistoryList[len(migrationHistoryList)-1]
	if !version.IsVersionGreaterThan(currentSchemaVersion, latestVersion) {
		return nil
	}

	for _, minorVersion := range getMinorVersionList() {
		normalizedVersion := minorVersion + ".0"
		if version.IsVersionGreaterThan(normalizedVersion, latestVersion) && version.IsVersionGreaterOrEqualThan(currentSchemaVersion, normalizedVersion) {
			log.Info("applying migration", zap.String("version", normalizedVersion))
			if err := db.applyMigrationForMinorVersion(ctx, minorVersion); err != nil {
				return errors.Wrapf(err, "failed to apply minor version migration %s", minorVersion)
			}
		}
	}
	return nil
}

const (
	latestSchemaFileName = "LATEST__SCHEMA.sql"
)

func (db *DB) applyLatestSchema(ctx context.Context) error {
	latestSchemaPath := fmt.Sprintf("migration/prod/%s", latestSchemaFileName)
	buf, err := migrationFS.ReadFile(latestSchemaPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema %q", latestSchemaPath)
	}
	stmt := string(buf)
	if err := db.execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "migrate error: statement %s", stmt)
	}
	return nil
}

func (db *DB) applyMigrationForMinorVersion(ctx context.Context, minorVersion string) error {
	filenames, err := fs.Glob(migrationFS, fmt.Sprintf("migration/prod/%s/*.sql", minorVersion))
	if err != nil {
		return err
	}
	sort.Strings(filenames)

	tx, err := db.DBInstance.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, filename := range filenames {
		buf, err := migrationFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read minor version migration file %q", filename)
		}
		stmt := string(buf)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migrate error: statement %s", stmt)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO migration_history (version) VALUES (?)
		ON CONFLICT(version) DO NOTHING
	`, minorVersion+".0"); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *DB) seed(ctx context.Context) error {
	filenames, err := fs.Glob(seedFS, "seed/*.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filenames)

	for _, filename := range filenames {
		buf, err := seedFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file, filename=%s", filename)
		}
		seed := string(buf)
		if err := db.execute(ctx, seed); err != nil {
			return errors.Wrapf(err, "seed error: %s", seed)
		}
	}
	return nil
}

// execute runs a single SQL statement within a transaction.
func (db *DB) execute(ctx context.Context, stmt string) error {
	tx, err := db.DBInstance.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return err
	}

	return tx.Commit()
}

// minorDirRegexp matches minor version directories such as `0.2`.
var minorDirRegexp = regexp.MustCompile(`^migration/prod/[0-9]+\.[0-9]+$`)

func getMinorVersionList() []string {
	minorVersionList := []string{}

	if err := fs.WalkDir(migrationFS, "migration/prod", func(path string, file fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if file.IsDir() && minorDirRegexp.MatchString(path) {
			minorVersionList = append(minorVersionList, file.Name())
		}

		return nil
	}); err != nil {
		panic(err)
	}

	sort.Slice(minorVersionList, func(i, j int) bool {
		return version.IsVersionGreaterThan(minorVersionList[j]+".0", minorVersionList[i]+".0")
	})

	return minorVersionList
}

func (db *DB) findMigrationHistoryList(ctx context.Context) ([]string, error) {
	rows, err := db.DBInstance.QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versionList := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versionList = append(versionList, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(versionList, func(i, j int) bool {
		return version.IsVersionGreaterThan(versionList[j], versionList[i])
	})
	return versionList, nil
}

func (db *DB) upsertMigrationHistory(ctx context.Context, v string) error {
	_, err := db.DBInstance.ExecContext(ctx, `
		INSERT INTO migration_history (version) VALUES (?)
		ON CONFLICT(version) DO NOTHING
	`, v)
	return err
}

// IsCantOpenError checks if the error is a SQLite CANTOPEN error.
func IsCantOpenError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CANTOPEN
	}
	return false
}

// IsUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func IsUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
