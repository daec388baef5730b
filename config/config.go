// Package config loads the drivemap settings file.
//
// The file is TOML. Every key is optional; missing keys keep their defaults.
// The two files default to client_secrets.json and credentials.json in the drivemap
// directory under os.UserConfigDir (~/.config/drivemap on Linux). A leading "~/" in
// client_secrets_file, credentials_file and cache_dir is expanded to the home directory:
//
//	client_secrets_file = "~/.config/drivemap/client_secrets.json"
//	credentials_file    = "~/.config/drivemap/credentials.json"
//	max_levels          = -1
//	include_hidden      = false
//	use_cache           = false
//	cache_dir           = ""
//	move_to_trash       = false
//	log_level           = "warn"
//
//	[link]
//	permission_type = "anyone"
//	permission_role = "reader"
//	email           = ""
//	domain          = ""
package config

import (
	"os"
	"path/filepath"

	"github.com/Jumpaku/go-drivemap"
)

// EnvConfig names the environment variable overriding the settings file path.
const EnvConfig = "DRIVEMAP_CONFIG"

// Config holds the settings shared by the drivemap commands.
type Config struct {
	ClientSecretsFile string `toml:"client_secrets_file"`
	CredentialsFile   string `toml:"credentials_file"`

	MaxLevels     int  `toml:"max_levels"`
	IncludeHidden bool `toml:"include_hidden"`
	MoveToTrash   bool `toml:"move_to_trash"`

	UseCache bool `toml:"use_cache"`
	// CacheDir is the download cache directory. Empty means <user cache dir>/drivemap/cached.
	CacheDir string `toml:"cache_dir"`

	LogLevel string `toml:"log_level"`

	Link LinkConfig `toml:"link"`
}

// LinkConfig is the permission granted by the url command.
type LinkConfig struct {
	PermissionType string `toml:"permission_type"`
	PermissionRole string `toml:"permission_role"`
	// Email is the grantee of user and group permissions.
	Email string `toml:"email"`
	// Domain is the grantee of domain permissions.
	Domain string `toml:"domain"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *Config {
	dir := configDir()
	return &Config{
		ClientSecretsFile: filepath.Join(dir, "client_secrets.json"),
		CredentialsFile:   filepath.Join(dir, "credentials.json"),
		MaxLevels:         drivemap.Unbounded,
		LogLevel:          "warn",
		Link: LinkConfig{
			PermissionType: "anyone",
			PermissionRole: string(drivemap.RoleReader),
		},
	}
}

// DefaultPath returns <user config dir>/drivemap/config.toml.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// ResolvePath returns flagPath if set, otherwise the DRIVEMAP_CONFIG environment variable
// if set, otherwise DefaultPath.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath()
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "drivemap")
}

// Options returns the Reader and Store options the settings describe.
func (c *Config) Options() []drivemap.Option {
	return []drivemap.Option{
		drivemap.WithMaxLevels(c.MaxLevels),
		drivemap.WithIncludeHidden(c.IncludeHidden),
		drivemap.WithMoveToTrash(c.MoveToTrash),
	}
}

// Permission returns the permission the url command grants.
func (c *LinkConfig) Permission() (drivemap.Permission, error) {
	target := c.Email
	if c.PermissionType == "domain" {
		target = c.Domain
	}
	return drivemap.ParsePermission(c.PermissionType, c.PermissionRole, target)
}
