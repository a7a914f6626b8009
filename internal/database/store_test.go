package database_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botmanager/internal/database"
	apperrors "github.com/edgard/botmanager/internal/errors"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil)
}

func createUser(t *testing.T, store database.Store, id string) *database.User {
	t.Helper()
	user := &database.User{ID: id, Name: "user " + id, APIKeyHash: "hash-" + id}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	createUser(t, store, "u1")

	got, err := store.GetUserByAPIKeyHash(ctx, "hash-u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := store.GetUserByAPIKeyHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "user u1", byID.Name)

	err = store.CreateUser(ctx, &database.User{ID: "u2", Name: "dup", APIKeyHash: "hash-u1"})
	require.Error(t, err, "api key hash must be unique")
}

func TestCreateAndGetBot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	createUser(t, store, "u1")

	info := database.JSONSnapshot(`{"id":123456,"is_bot":true,"first_name":"Echo","username":"echo_bot"}`)
	bot := &database.Bot{
		ID:         "123456",
		Name:       "Echo",
		Username:   strPtr("echo_bot"),
		UserID:     "u1",
		BotInfo:    info,
		Token:      "123456:secret",
		WebhookURL: "https://hooks.example.com/?botId=123456",
	}
	require.NoError(t, store.CreateBot(ctx, bot))

	got, err := store.GetBot(ctx, "123456")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Echo", got.Name)
	require.NotNil(t, got.Username)
	assert.Equal(t, "echo_bot", *got.Username)
	assert.Equal(t, "123456:secret", got.Token)
	assert.Equal(t, "https://hooks.example.com/?botId=123456", got.WebhookURL)
	assert.JSONEq(t, string(info), string(got.BotInfo))

	// Token never leaves through JSON.
	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.Contains(t, string(out), `"botInfo":{"id":123456`)
}

func TestCreateBotDuplicateID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	createUser(t, store, "u1")

	bot := &database.Bot{ID: "42", Name: "First", UserID: "u1", BotInfo: database.JSONSnapshot(`{}`), Token: "42:a"}
	require.NoError(t, store.CreateBot(ctx, bot))

	dup := &database.Bot{ID: "42", Name: "Second", UserID: "u1", BotInfo: database.JSONSnapshot(`{}`), Token: "42:b"}
	err := store.CreateBot(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.Code(err))
}

func TestCreateBotUnknownUser(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	bot := &database.Bot{ID: "7", Name: "Orphan", UserID: "ghost", BotInfo: database.JSONSnapshot(`{}`), Token: "7:x"}
	require.Error(t, store.CreateBot(context.Background(), bot), "foreign key must be enforced")
}

func TestGetBotMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	got, err := store.GetBot(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListBotsAndUpdateWebhookURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	createUser(t, store, "u1")
	createUser(t, store, "u2")

	for _, b := range []database.Bot{
		{ID: "1", Name: "One", UserID: "u1", Token: "1:a"},
		{ID: "2", Name: "Two", UserID: "u2", Token: "2:a"},
		{ID: "3", Name: "Three", UserID: "u1", Token: "3:a"},
	} {
		require.NoError(t, store.CreateBot(ctx, &b))
	}

	mine, err := store.ListBotsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.ElementsMatch(t, []string{"1", "3"}, []string{mine[0].ID, mine[1].ID})

	none, err := store.ListBotsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)

	all, err := store.ListBots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.UpdateBotWebhookURL(ctx, "2", "https://new.example.com/?botId=2"))
	got, err := store.GetBot(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com/?botId=2", got.WebhookURL)

	err = store.UpdateBotWebhookURL(ctx, "missing", "https://x")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	require.NoError(t, store.RunSQLMaintenance(context.Background()))
	require.NoError(t, store.Ping(context.Background()))
}

func TestDSN(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "file:x.db?mode=ro", database.DSN("file:x.db?mode=ro"))
	dsn := database.DSN("/data/app.db")
	assert.Contains(t, dsn, "file:/data/app.db?")
	assert.Contains(t, dsn, "foreign_keys")
}
