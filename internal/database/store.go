package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/edgard/botmanager/internal/errors"
)

// Store defines the interface for database operations.
// Lookups return nil, nil when the row does not exist.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateUser inserts a new application user.
	CreateUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByAPIKeyHash retrieves the user owning the hashed API key.
	GetUserByAPIKeyHash(ctx context.Context, hash string) (*User, error)

	// CreateBot inserts a bot record; the id must not exist yet.
	CreateBot(ctx context.Context, bot *Bot) error

	// GetBot retrieves a bot by its platform id.
	GetBot(ctx context.Context, id string) (*Bot, error)

	// ListBotsByUser retrieves the bots owned by a user, oldest first.
	ListBotsByUser(ctx context.Context, userID string) ([]Bot, error)

	// ListBots retrieves every bot, oldest first.
	ListBots(ctx context.Context) ([]Bot, error)

	// UpdateBotWebhookURL records the webhook URL last registered for a bot.
	UpdateBotWebhookURL(ctx context.Context, id, webhookURL string) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

const botColumns = `id, name, username, user_id, bot_info, token, webhook_url, created_at, updated_at`

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.ID == "" || user.APIKeyHash == "" {
		return fmt.Errorf("user must have an id and an api key hash")
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (id, name, api_key_hash, created_at, updated_at)
        VALUES (:id, :name, :api_key_hash, :created_at, :updated_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error saving user", "user_id", user.ID, "error", err)
		return apperrors.NewDatabaseError(fmt.Sprintf("failed to save user %s", user.ID), err)
	}

	s.logger.DebugContext(ctx, "User saved successfully", "user_id", user.ID)
	return nil
}

func (s *sqlxStore) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `SELECT id, name, api_key_hash, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (s *sqlxStore) GetUserByAPIKeyHash(ctx context.Context, hash string) (*User, error) {
	return s.getUser(ctx, `SELECT id, name, api_key_hash, created_at, updated_at FROM users WHERE api_key_hash = ?`, hash)
}

func (s *sqlxStore) getUser(ctx context.Context, query, arg string) (*User, error) {
	if arg == "" {
		return nil, nil
	}

	var user User
	err := s.db.GetContext(ctx, &user, query, arg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "error", err)
		return nil, apperrors.NewDatabaseError("failed to get user", err)
	}
	return &user, nil
}

// CreateBot inserts a new bot record. A duplicate id is reported as an error
// from the unique primary key.
func (s *sqlxStore) CreateBot(ctx context.Context, bot *Bot) error {
	if bot == nil {
		return fmt.Errorf("cannot save nil bot")
	}
	if bot.ID == "" {
		return fmt.Errorf("bot must have a non-empty id")
	}
	if bot.UserID == "" {
		return fmt.Errorf("bot must have a non-empty user_id")
	}
	if bot.Token == "" {
		return fmt.Errorf("bot must have a non-empty token")
	}

	now := time.Now().UTC()
	bot.CreatedAt = now
	bot.UpdatedAt = now

	query := `
        INSERT INTO bots (` + botColumns + `)
        VALUES (:id, :name, :username, :user_id, :bot_info, :token, :webhook_url, :created_at, :updated_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, bot)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving bot", "bot_id", bot.ID, "user_id", bot.UserID, "error", err)
		return apperrors.NewDatabaseError(fmt.Sprintf("failed to save bot %s", bot.ID), err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when saving bot",
			"bot_id", bot.ID, "affected", affected)
	}

	s.logger.DebugContext(ctx, "Bot saved successfully", "bot_id", bot.ID, "user_id", bot.UserID)
	return nil
}

func (s *sqlxStore) GetBot(ctx context.Context, id string) (*Bot, error) {
	if id == "" {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var bot Bot
	err := s.db.GetContext(ctx, &bot, `SELECT `+botColumns+` FROM bots WHERE id = ?`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No bot found", "bot_id", id)
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching bot", "bot_id", id, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting bot by ID", "bot_id", id, "error", err)
		return nil, apperrors.NewDatabaseError(fmt.Sprintf("failed to get bot %s", id), err)
	}
	return &bot, nil
}

func (s *sqlxStore) ListBotsByUser(ctx context.Context, userID string) ([]Bot, error) {
	bots := []Bot{}
	query := `SELECT ` + botColumns + ` FROM bots WHERE user_id = ? ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &bots, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing bots", "user_id", userID, "error", err)
		return nil, apperrors.NewDatabaseError("failed to list bots", err)
	}
	return bots, nil
}

func (s *sqlxStore) ListBots(ctx context.Context) ([]Bot, error) {
	bots := []Bot{}
	if err := s.db.SelectContext(ctx, &bots, `SELECT `+botColumns+` FROM bots ORDER BY created_at, id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing all bots", "error", err)
		return nil, apperrors.NewDatabaseError("failed to list bots", err)
	}
	return bots, nil
}

func (s *sqlxStore) UpdateBotWebhookURL(ctx context.Context, id, webhookURL string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bots SET webhook_url = ?, updated_at = ? WHERE id = ?`,
		webhookURL, time.Now().UTC(), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating bot webhook URL", "bot_id", id, "error", err)
		return apperrors.NewDatabaseError(fmt.Sprintf("failed to update bot %s", id), err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("bot %s not found", id))
	}
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
