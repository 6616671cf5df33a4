// Package secrets resolves credential values in the configuration, so access
// tokens and API keys can reference environment variables instead of being
// written into config.yaml.
//
// Security Design:
//   - Never logs secret values
//   - Clear error messages without exposing secrets
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// ExpandString resolves environment variable references in a credential
// value. Supports syntax: ${VAR} or ${VAR:-default}
//
// Examples:
//   - "literal" -> "literal"
//   - "${MYCOBANK_ACCESS_TOKEN}" -> value of MYCOBANK_ACCESS_TOKEN
//   - "${NCBI_API_KEY:-}" -> value of NCBI_API_KEY or "" if not set
//   - "Bearer ${TOKEN}" -> "Bearer <value>"
//
// Returns the expanded string or an error if required variables are missing.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	// Use os.Expand for variable expansion
	// Track missing variables for better error messages
	var missingVars []string

	expanded := os.Expand(s, func(key string) string {
		// Support ${VAR:-default} syntax (fallback may be empty)
		varName := key
		defaultValue := ""
		fallbackProvided := false

		if idx := strings.Index(key, ":-"); idx != -1 {
			varName = key[:idx]
			defaultValue = key[idx+2:]
			fallbackProvided = true
		}

		value := os.Getenv(varName)
		if value == "" {
			if fallbackProvided {
				// Use fallback even if it's an empty string
				return defaultValue
			}
			missingVars = append(missingVars, varName)
			return ""
		}
		return value
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variable(s): %s", strings.Join(missingVars, ", "))
	}

	return expanded, nil
}
