package mcp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/edgard/botmanager/internal/bots"
	"github.com/edgard/botmanager/internal/database"
	"github.com/edgard/botmanager/internal/logger"
	"github.com/edgard/botmanager/internal/platform"
	"github.com/edgard/botmanager/internal/platform/telegramtest"
)

const testToken = "777:mcp-token"

func newTestServer(t *testing.T) (*Server, *telegramtest.Server) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)
	if err := store.CreateUser(context.Background(), &database.User{ID: "u-mcp", Name: "mcp", APIKeyHash: "h"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	tg := telegramtest.NewServer(t)
	tg.AddBot(testToken, telegramtest.Bot{ID: 777, FirstName: "Tool", Username: "tool_bot"})

	factory, err := platform.NewFactory(platform.Options{APIURL: tg.URL, RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	svc, err := bots.NewService(bots.Deps{Store: store, NewClient: factory, WebhookBase: "https://hooks.example.com"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return NewServer(svc, "u-mcp", logger.Discard()), tg
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestToolsFlow(t *testing.T) {
	s, tg := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleAddBot(ctx, callRequest("add_bot", map[string]any{"token": testToken}))
	if err != nil {
		t.Fatalf("handleAddBot: %v", err)
	}
	if result.IsError {
		t.Fatalf("add_bot returned error: %s", resultText(t, result))
	}
	if got := tg.Webhook(testToken); got != "https://hooks.example.com?botId=777" {
		t.Errorf("webhook = %q, want https://hooks.example.com?botId=777", got)
	}

	result, err = s.handleRestartBot(ctx, callRequest("restart_bot", map[string]any{"botId": "777"}))
	if err != nil {
		t.Fatalf("handleRestartBot: %v", err)
	}
	if got := resultText(t, result); got != "true" {
		t.Errorf("restart_bot = %s, want true", got)
	}

	result, err = s.handleRestartBot(ctx, callRequest("restart_bot", map[string]any{"botId": "1"}))
	if err != nil {
		t.Fatalf("handleRestartBot: %v", err)
	}
	if got := resultText(t, result); got != "false" {
		t.Errorf("restart_bot unknown = %s, want false", got)
	}

	result, err = s.handleListBots(ctx, callRequest("list_bots", nil))
	if err != nil {
		t.Fatalf("handleListBots: %v", err)
	}
	if got := resultText(t, result); len(got) < 2 || got[0] != '[' {
		t.Errorf("list_bots = %s, want JSON array", got)
	}
}

func TestToolsMissingArguments(t *testing.T) {
	s, tg := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleAddBot(ctx, callRequest("add_bot", map[string]any{}))
	if err != nil {
		t.Fatalf("handleAddBot: %v", err)
	}
	if !result.IsError {
		t.Errorf("add_bot without token should be a tool error")
	}

	result, err = s.handleRestartBot(ctx, callRequest("restart_bot", nil))
	if err != nil {
		t.Fatalf("handleRestartBot: %v", err)
	}
	if !result.IsError {
		t.Errorf("restart_bot without botId should be a tool error")
	}

	if calls := tg.Calls(); len(calls) != 0 {
		t.Errorf("platform calls = %v, want none", calls)
	}
}

func TestAddBotInvalidTokenIsToolError(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleAddBot(context.Background(), callRequest("add_bot", map[string]any{"token": "1:bad"}))
	if err != nil {
		t.Fatalf("handleAddBot: %v", err)
	}
	if !result.IsError {
		t.Errorf("add_bot with rejected token should be a tool error")
	}
}
