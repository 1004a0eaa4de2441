// Package nodeversion turns the different ways of naming a Node.js runtime
// into its major version number.
package nodeversion

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse extracts the major version from inputs like:
//   - "18"         -> 18
//   - "v18.17.1"   -> 18
//   - "node20"     -> 20
//   - "nodejs20.x" -> 20 (Lambda runtime identifier)
func Parse(s string) (int, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("node version cannot be empty")
	}
	rest := in
	for _, prefix := range []string{"nodejs", "node", "v"} {
		if strings.HasPrefix(rest, prefix) {
			rest = strings.TrimPrefix(rest, prefix)
			break
		}
	}

	// Extract numeric prefix (e.g., "20.x" -> "20")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("invalid node version %q", s)
	}
	if end < len(rest) && rest[end] != '.' {
		return 0, fmt.Errorf("invalid node version %q", s)
	}
	major, err := strconv.Atoi(rest[:end])
	if err != nil || major == 0 {
		return 0, fmt.Errorf("invalid node version %q", s)
	}
	return major, nil
}

// Runtime returns the Lambda runtime identifier for a major: 20 -> "nodejs20.x".
func Runtime(major int) string {
	return fmt.Sprintf("nodejs%d.x", major)
}

// Target returns the bundler target string for a major: 20 -> "node20".
func Target(major int) string {
	return fmt.Sprintf("node%d", major)
}
