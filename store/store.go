package store

import (
	"database/sql"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/rabithua/chatmemo/server/profile"
)

const (
	conversationCacheExpiration = 5 * time.Minute
	conversationCacheCleanup    = 10 * time.Minute
)

// Store provides database access to all raw objects.
type Store struct {
	db      *sql.DB
	profile *profile.Profile

	conversationCache *cache.Cache
}

// New creates a new instance of Store.
func New(db *sql.DB, profile *profile.Profile) *Store {
	return &Store{
		db:                db,
		profile:           profile,
		conversationCache: cache.New(conversationCacheExpiration, conversationCacheCleanup),
	}
}
