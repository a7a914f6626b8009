// Package auth issues and checks the API keys application users present to
// the procedure endpoints.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/edgard/botmanager/internal/database"
	apperrors "github.com/edgard/botmanager/internal/errors"
)

const apiKeyPrefix = "bm_"

type ctxKey string

const contextUserID ctxKey = "user_id"

// GenerateAPIKey returns a new random API key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// HashAPIKey returns the hex SHA-256 of key, the form stored in the users table.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// CreateUser stores a new user and returns it with its plaintext API key.
// The key is not recoverable afterwards.
func CreateUser(ctx context.Context, store database.Store, name string) (*database.User, string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, "", apperrors.NewValidationError("user name cannot be empty", nil)
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	user := &database.User{
		ID:         uuid.NewString(),
		Name:       name,
		APIKeyHash: HashAPIKey(key),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	return user, key, nil
}

// Authenticate resolves the user for an API key.
func Authenticate(ctx context.Context, store database.Store, key string) (*database.User, error) {
	if key == "" {
		return nil, apperrors.NewUnauthorizedError("missing api key")
	}
	user, err := store.GetUserByAPIKeyHash(ctx, HashAPIKey(key))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("invalid api key")
	}
	return user, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextUserID, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextUserID).(string)
	return id, ok && id != ""
}
