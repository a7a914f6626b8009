// Package platform wraps the bot platform (Telegram Bot API) calls the
// service needs: identity lookup and webhook registration.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Supported SDK names for Options.SDK.
const (
	SDKGoTelegram = "gotelegram"
	SDKBotAPI     = "botapi"
)

// Identity is the platform's description of a bot, as returned by getMe.
type Identity struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`

	// Raw is the getMe result as the platform sent it.
	Raw json.RawMessage `json:"-"`
}

// identityFromRaw decodes the typed fields of a getMe result and keeps the
// original bytes.
func identityFromRaw(raw json.RawMessage) (*Identity, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty getMe result")
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("failed to decode bot identity: %w", err)
	}
	id.Raw = append(json.RawMessage(nil), raw...)
	return &id, nil
}

// WebhookInfo is the current webhook state reported by the platform.
type WebhookInfo struct {
	URL                string
	PendingUpdateCount int
	LastErrorDate      int64
	LastErrorMessage   string
}

// Client is a bot platform client bound to a single bot token.
type Client interface {
	GetMe(ctx context.Context) (*Identity, error)
	SetWebhook(ctx context.Context, url string) error
	DeleteWebhook(ctx context.Context) error
	WebhookInfo(ctx context.Context) (*WebhookInfo, error)
}

// Factory constructs a Client from a bot token. Construction performs no
// network calls.
type Factory func(token string) (Client, error)

// Options configures the clients produced by NewFactory.
type Options struct {
	SDK                string
	APIURL             string
	RequestTimeout     time.Duration
	DropPendingUpdates bool
	HTTPClient         *http.Client
}

// NewFactory returns a Factory for the SDK named in opts.
func NewFactory(opts Options) (Factory, error) {
	if opts.APIURL == "" {
		opts.APIURL = "https://api.telegram.org"
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	switch opts.SDK {
	case "", SDKGoTelegram:
		return func(token string) (Client, error) {
			return newGoTelegramClient(token, opts)
		}, nil
	case SDKBotAPI:
		return func(token string) (Client, error) {
			return newBotAPIClient(token, opts)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported telegram sdk %q", opts.SDK)
	}
}

func validateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("bot token cannot be empty")
	}
	return nil
}
