package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"

	"github.com/rabithua/chatmemo/server/version"
)

var modeList = []string{"prod", "dev", "demo"}

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string `json:"mode"`
	// Addr is the binding address for server
	Addr string `json:"-"`
	// Port is the binding port for server
	Port int `json:"-"`
	// Data is the data directory
	Data string `json:"-"`
	// DSN points to where the SQLite database is stored
	DSN string `json:"-"`
	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration `json:"-" mapstructure:"token-ttl"`
	// Version is the current version of server
	Version string `json:"version"`
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func checkDSN(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(filepath.Dir(os.Args[0]) + "/" + dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing / in case user supplies
	dataDir = strings.TrimRight(dataDir, "/")

	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}

	return dataDir, nil
}

// GetProfile will return a profile for dev or prod.
func GetProfile() (*Profile, error) {
	profile := Profile{}
	err := viper.Unmarshal(&profile)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(modeList, profile.Mode) {
		profile.Mode = "demo"
	}

	if profile.Mode == "prod" && profile.Data == "" {
		profile.Data = "/var/opt/chatmemo"
	}
	if profile.IsDev() && profile.Data != "" {
		if err := os.MkdirAll(profile.Data, 0o770); err != nil {
			return nil, errors.Wrapf(err, "failed to create data folder %s", profile.Data)
		}
	}

	dataDir, err := checkDSN(profile.Data)
	if err != nil {
		fmt.Printf("Failed to check dsn: %s, err: %+v\n", dataDir, err)
		return nil, err
	}

	if profile.TokenTTL <= 0 {
		profile.TokenTTL = 7 * 24 * time.Hour
	}

	profile.Data = dataDir
	profile.DSN = fmt.Sprintf("%s/chatmemo_%s.db", dataDir, profile.Mode)
	profile.Version = version.GetCurrentVersion(profile.Mode)
	return &profile, nil
}
