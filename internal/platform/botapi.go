package platform

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPIClient implements Client with github.com/go-telegram-bot-api/telegram-bot-api.
// That SDK has no context support, so ctx is only checked before each call.
type botAPIClient struct {
	api  *tgbotapi.BotAPI
	opts Options
}

func newBotAPIClient(token string, opts Options) (*botAPIClient, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}

	// Built by hand because NewBotAPIWithClient calls getMe on construction.
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: opts.HTTPClient,
		Buffer: 100,
	}
	api.SetAPIEndpoint(opts.APIURL + "/bot%s/%s")

	return &botAPIClient{api: api, opts: opts}, nil
}

func (c *botAPIClient) GetMe(ctx context.Context) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// MakeRequest instead of GetMe so the result bytes are kept.
	resp, err := c.api.MakeRequest("getMe", nil)
	if err != nil {
		return nil, fmt.Errorf("getMe failed: %w", err)
	}
	if err := json.Unmarshal(resp.Result, &c.api.Self); err != nil {
		return nil, fmt.Errorf("failed to decode bot identity: %w", err)
	}

	return identityFromRaw(resp.Result)
}

func (c *botAPIClient) SetWebhook(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	return nil
}

func (c *botAPIClient) DeleteWebhook(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.DeleteWebhookConfig{DropPendingUpdates: c.opts.DropPendingUpdates}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("deleteWebhook failed: %w", err)
	}
	return nil
}

func (c *botAPIClient) WebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := c.api.GetWebhookInfo()
	if err != nil {
		return nil, fmt.Errorf("getWebhookInfo failed: %w", err)
	}
	return &WebhookInfo{
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorDate:      int64(info.LastErrorDate),
		LastErrorMessage:   info.LastErrorMessage,
	}, nil
}
