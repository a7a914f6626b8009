// Package bots implements bot registration and webhook restarts on top of the
// bot platform and the store.
package bots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/botmanager/internal/database"
	apperrors "github.com/edgard/botmanager/internal/errors"
	"github.com/edgard/botmanager/internal/platform"
	"github.com/edgard/botmanager/internal/webhook"
)

// RegisterInput is the payload of the add procedure.
type RegisterInput struct {
	Token string `json:"token" validate:"required"`
}

// RestartInput is the payload of the restart procedure.
type RestartInput struct {
	// Any string is accepted; ids with no stored bot restart as false.
	BotID string `json:"botId"`
}

// Deps provides the collaborators of a Service.
type Deps struct {
	Logger *slog.Logger
	Store  database.Store
	// NewClient builds a platform client for a bot token.
	NewClient platform.Factory
	// WebhookBase is the address every webhook URL is derived from.
	WebhookBase string
}

// Service registers bots and manages their webhooks.
type Service struct {
	logger      *slog.Logger
	store       database.Store
	newClient   platform.Factory
	webhookBase string
	validate    *validator.Validate
}

// NewService creates a Service. Store, NewClient and WebhookBase are required.
func NewService(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if deps.NewClient == nil {
		return nil, fmt.Errorf("platform client factory cannot be nil")
	}
	if _, err := webhook.BuildURL(deps.WebhookBase, "0"); err != nil {
		return nil, fmt.Errorf("invalid webhook base: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		logger:      deps.Logger.With("component", "bots"),
		store:       deps.Store,
		newClient:   deps.NewClient,
		webhookBase: deps.WebhookBase,
		validate:    validator.New(),
	}, nil
}

// Validate checks a procedure payload against its struct tags.
func (s *Service) Validate(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return apperrors.NewValidationError("invalid input", err)
	}
	return nil
}

// Register validates token against the platform, points the bot's webhook at
// this service and stores the bot for userID.
//
// Platform failures are returned to the caller. A failed insert is logged and
// reported as (nil, nil); the webhook registered just before stays in place.
func (s *Service) Register(ctx context.Context, userID string, input RegisterInput) (*database.Bot, error) {
	log := s.logger.With("operation", "register", "user_id", userID)

	if err := s.Validate(input); err != nil {
		return nil, err
	}

	client, err := s.newClient(input.Token)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create platform client", "error", err)
		return nil, apperrors.NewPlatformError("failed to create platform client", err)
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch bot identity", "error", err)
		return nil, apperrors.NewPlatformError("failed to fetch bot identity", err)
	}

	botID := strconv.FormatInt(me.ID, 10)
	log = log.With("bot_id", botID)

	hookURL, err := webhook.BuildURL(s.webhookBase, botID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build webhook URL", "error", err)
		return nil, err
	}

	if err := client.SetWebhook(ctx, hookURL); err != nil {
		log.ErrorContext(ctx, "Failed to set webhook", "webhook_url", hookURL, "error", err)
		return nil, apperrors.NewPlatformError("failed to set webhook", err)
	}
	log.InfoContext(ctx, "Webhook registered", "webhook_url", hookURL)

	bot := &database.Bot{
		ID:         botID,
		Name:       me.FirstName,
		UserID:     userID,
		BotInfo:    database.JSONSnapshot(me.Raw),
		Token:      input.Token,
		WebhookURL: hookURL,
	}
	if me.Username != "" {
		username := me.Username
		bot.Username = &username
	}

	if err := s.store.CreateBot(ctx, bot); err != nil {
		log.ErrorContext(ctx, "Failed to save bot, webhook remains registered", "error", err)
		return nil, nil
	}

	log.InfoContext(ctx, "Bot registered", "username", me.Username)
	return bot, nil
}

// Restart removes the bot's webhook and registers it again. Every failure,
// including an unknown bot id, is logged and reported as false.
func (s *Service) Restart(ctx context.Context, input RestartInput) bool {
	log := s.logger.With("operation", "restart", "bot_id", input.BotID)

	if err := s.restart(ctx, input.BotID); err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			log.WarnContext(ctx, "Restart requested for unknown bot")
		} else {
			log.ErrorContext(ctx, "Failed to restart bot", "error", err)
		}
		return false
	}

	log.InfoContext(ctx, "Bot restarted")
	return true
}

func (s *Service) restart(ctx context.Context, botID string) error {
	bot, err := s.store.GetBot(ctx, botID)
	if err != nil {
		return err
	}
	if bot == nil {
		return apperrors.NewNotFoundError("bot not found")
	}

	client, err := s.newClient(bot.Token)
	if err != nil {
		return apperrors.NewPlatformError("failed to create platform client", err)
	}

	if err := client.DeleteWebhook(ctx); err != nil {
		return apperrors.NewPlatformError("failed to delete webhook", err)
	}

	hookURL, err := webhook.BuildURL(s.webhookBase, botID)
	if err != nil {
		return err
	}
	if err := client.SetWebhook(ctx, hookURL); err != nil {
		return apperrors.NewPlatformError("failed to set webhook", err)
	}

	if bot.WebhookURL != hookURL {
		if err := s.store.UpdateBotWebhookURL(ctx, botID, hookURL); err != nil {
			s.logger.WarnContext(ctx, "Failed to record webhook URL", "bot_id", botID, "error", err)
		}
	}
	return nil
}

// List returns the bots owned by userID.
func (s *Service) List(ctx context.Context, userID string) ([]database.Bot, error) {
	return s.store.ListBotsByUser(ctx, userID)
}
