// Package mcp exposes the bot procedures as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/edgard/botmanager/internal/bots"
)

// Version is set via ldflags at build time.
var Version = "dev"

var addBotTool = mcp.NewTool("add_bot",
	mcp.WithDescription("Register a Telegram bot by token: validates the token, sets its webhook and stores it."),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("Bot token issued by BotFather"),
	),
)

var restartBotTool = mcp.NewTool("restart_bot",
	mcp.WithDescription("Delete and re-register the webhook of a stored bot. Returns true or false."),
	mcp.WithString("botId",
		mcp.Required(),
		mcp.Description("Platform id of the bot"),
	),
)

var listBotsTool = mcp.NewTool("list_bots",
	mcp.WithDescription("List the bots registered by the configured user."),
)

// Server wraps an MCP server acting on behalf of a single application user.
type Server struct {
	bots   *bots.Service
	userID string
	logger *slog.Logger
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server whose tools act as userID.
func NewServer(svc *bots.Service, userID string, logger *slog.Logger) *Server {
	s := &Server{
		bots:   svc,
		userID: userID,
		logger: logger.With("component", "mcp"),
	}

	s.mcp = server.NewMCPServer(
		"botmanager",
		Version,
		server.WithToolCapabilities(false),
	)
	s.mcp.AddTool(addBotTool, s.handleAddBot)
	s.mcp.AddTool(restartBotTool, s.handleRestartBot)
	s.mcp.AddTool(listBotsTool, s.handleListBots)

	return s
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleAddBot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: token"), nil
	}

	bot, err := s.bots.Register(ctx, s.userID, bots.RegisterInput{Token: token})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add bot: %v", err)), nil
	}
	return jsonResult(bot)
}

func (s *Server) handleRestartBot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	botID, err := request.RequireString("botId")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: botId"), nil
	}
	return jsonResult(s.bots.Restart(ctx, bots.RestartInput{BotID: botID}))
}

func (s *Server) handleListBots(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.bots.List(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bots: %v", err)), nil
	}
	return jsonResult(list)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
