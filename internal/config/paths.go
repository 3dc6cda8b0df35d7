package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultPath is where the firmware keeps its settings
	DefaultPath = "/etc/jffs2/anyka_cfg.ini"

	// LegacyPath is the misspelled file name shipped by early firmware
	LegacyPath = "/etc/jffs2/ankya_cfg.ini"

	// PathEnv overrides DefaultPath
	PathEnv = "CAMCFG_CONFIG"
)

// ResolvePath returns the configuration file path: the explicit value if
// set, then $CAMCFG_CONFIG, then DefaultPath
func ResolvePath(explicit string) string {
	if explicit != "" {
		return filepath.Clean(explicit)
	}
	if env := os.Getenv(PathEnv); env != "" {
		return filepath.Clean(env)
	}
	return DefaultPath
}

// FallbackPath returns the secondary location tried when primary cannot be
// opened: DefaultPath for a custom primary, LegacyPath otherwise
func FallbackPath(primary string) string {
	if filepath.Clean(primary) != DefaultPath {
		return DefaultPath
	}
	return LegacyPath
}
