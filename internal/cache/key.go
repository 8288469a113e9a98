package cache

import (
	"fmt"
	"strings"
)

// ShowKey names the cached page of one show.
func ShowKey(showID int64) string {
	return fmt.Sprintf("game_%d.html", showID)
}

// SeasonKey names the cached index page of one season.
func SeasonKey(season int) string {
	return fmt.Sprintf("season_%d.html", season)
}

// ValidateKey rejects keys that are empty or would escape a single directory.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cache key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid cache key %q", key)
	}
	return nil
}
