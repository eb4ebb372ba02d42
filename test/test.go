package test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rabithua/chatmemo/server/profile"
	"github.com/rabithua/chatmemo/server/version"
)

func getUnusedPort() int {
	// Get a random unused port
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		panic(err)
	}
	defer listener.Close()

	// Get the port number
	port := listener.Addr().(*net.TCPAddr).Port
	return port
}

// GetTestingProfile returns a dev profile backed by a fresh database in a temporary directory.
func GetTestingProfile(t *testing.T) *profile.Profile {
	// Get a temporary directory for the test data.
	dir := t.TempDir()
	mode := "dev"
	port := getUnusedPort()
	return &profile.Profile{
		Mode:     mode,
		Port:     port,
		Data:     dir,
		DSN:      fmt.Sprintf("%s/chatmemo_%s.db", dir, mode),
		TokenTTL: time.Hour,
		Version:  version.GetCurrentVersion(mode),
	}
}
