package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
)

// goTelegramClient implements Client with github.com/go-telegram/bot.
type goTelegramClient struct {
	b       *bot.Bot
	opts    Options
	capture *captureClient
}

// captureClient keeps the last response body of one Bot API method. The
// SDK only hands back its own decoded types.
type captureClient struct {
	next   bot.HttpClient
	method string

	mu   sync.Mutex
	body []byte
}

func (c *captureClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.next.Do(req)
	if err != nil || !strings.HasSuffix(req.URL.Path, "/"+c.method) {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	c.mu.Lock()
	c.body = body
	c.mu.Unlock()
	return resp, nil
}

func (c *captureClient) result() (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(c.body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", c.method, err)
	}
	return envelope.Result, nil
}

func newGoTelegramClient(token string, opts Options) (*goTelegramClient, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}

	capture := &captureClient{next: opts.HTTPClient, method: "getMe"}
	b, err := bot.New(token,
		bot.WithSkipGetMe(),
		bot.WithServerURL(opts.APIURL),
		bot.WithHTTPClient(opts.RequestTimeout, capture),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &goTelegramClient{b: b, opts: opts, capture: capture}, nil
}

func (c *goTelegramClient) GetMe(ctx context.Context) (*Identity, error) {
	if _, err := c.b.GetMe(ctx); err != nil {
		return nil, fmt.Errorf("getMe failed: %w", err)
	}

	raw, err := c.capture.result()
	if err != nil {
		return nil, err
	}
	return identityFromRaw(raw)
}

func (c *goTelegramClient) SetWebhook(ctx context.Context, url string) error {
	if _, err := c.b.SetWebhook(ctx, &bot.SetWebhookParams{URL: url}); err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	return nil
}

func (c *goTelegramClient) DeleteWebhook(ctx context.Context) error {
	params := &bot.DeleteWebhookParams{DropPendingUpdates: c.opts.DropPendingUpdates}
	if _, err := c.b.DeleteWebhook(ctx, params); err != nil {
		return fmt.Errorf("deleteWebhook failed: %w", err)
	}
	return nil
}

func (c *goTelegramClient) WebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	info, err := c.b.GetWebhookInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("getWebhookInfo failed: %w", err)
	}
	return &WebhookInfo{
		URL:                info.URL,
		PendingUpdateCount: int(info.PendingUpdateCount),
		LastErrorDate:      int64(info.LastErrorDate),
		LastErrorMessage:   info.LastErrorMessage,
	}, nil
}
