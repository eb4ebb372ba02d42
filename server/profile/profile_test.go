package profile

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	dir := t.TempDir()
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("mode", "dev")
	viper.Set("data", dir)
	viper.Set("port", 8081)

	profile, err := GetProfile()
	require.NoError(t, err)
	require.Equal(t, "dev", profile.Mode)
	require.True(t, profile.IsDev())
	require.Equal(t, 8081, profile.Port)
	require.Equal(t, fmt.Sprintf("%s/chatmemo_dev.db", dir), profile.DSN)
	require.Equal(t, 7*24*time.Hour, profile.TokenTTL)
}

func TestGetProfileUnknownMode(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("mode", "staging")
	viper.Set("data", t.TempDir())

	profile, err := GetProfile()
	require.NoError(t, err)
	require.Equal(t, "demo", profile.Mode)
}

func TestGetProfileMissingDataDir(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("mode", "prod")
	viper.Set("data", t.TempDir()+"/missing")

	_, err := GetProfile()
	require.Error(t, err)
}
