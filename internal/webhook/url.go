// Package webhook builds the per-bot webhook URLs registered with the platform.
package webhook

import (
	"fmt"
	"net/url"
)

// BotIDParam is the query parameter identifying the bot an update belongs to.
const BotIDParam = "botId"

// BuildURL returns base with exactly one botId query parameter set to botID.
// Other query parameters on base are kept; a botId already present is replaced.
func BuildURL(base, botID string) (string, error) {
	if botID == "" {
		return "", fmt.Errorf("bot id cannot be empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid webhook base address %q: %w", base, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("webhook base address %q must be an absolute URL", base)
	}

	q := u.Query()
	q.Set(BotIDParam, botID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// BotIDFromURL extracts the botId parameter from a webhook URL.
func BotIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid webhook URL %q: %w", raw, err)
	}
	values := u.Query()[BotIDParam]
	if len(values) != 1 {
		return "", fmt.Errorf("webhook URL %q carries %d %s parameters", raw, len(values), BotIDParam)
	}
	return values[0], nil
}
