// Package validation checks feed URLs before they enter the registry.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// FeedURL validates a subscription URL and returns its normalized form.
// OPML lists are hand-maintained, so malformed entries are expected and
// should be rejected here rather than fail deep inside a fetch.
func FeedURL(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > maxURLLength {
		return "", fmt.Errorf("URL too long (max %d characters)", maxURLLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	return parsed.String(), nil
}
