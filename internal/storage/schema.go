package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/JakeFAU/trivia-archive/internal/archive"
)

// LoadSchema returns the schema script to apply. A non-empty override path
// replaces the embedded script and must be readable.
func LoadSchema(embedded, override string) (string, error) {
	if override != "" {
		data, err := os.ReadFile(override)
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %w", archive.ErrSchemaMissing, override, err)
		}
		embedded = string(data)
	}
	if strings.TrimSpace(embedded) == "" {
		return "", fmt.Errorf("%w: schema script is empty", archive.ErrSchemaMissing)
	}
	return embedded, nil
}
