package teststore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rabithua/chatmemo/store"
	"github.com/rabithua/chatmemo/store/db"
	"github.com/rabithua/chatmemo/test"
)

func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	profile := test.GetTestingProfile(t)
	db := db.NewDB(profile)
	err := db.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	store := store.New(db.DBInstance, profile)
	return store
}
