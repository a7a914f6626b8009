package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User is an application account that owns bots. API keys are stored only as
// their SHA-256 hash.
type User struct {
	ID         string    `db:"id"           json:"id"`
	Name       string    `db:"name"         json:"name"`
	APIKeyHash string    `db:"api_key_hash" json:"-"`
	CreatedAt  time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at"   json:"updatedAt"`
}

// Bot is a registered messaging bot. ID is the platform-assigned bot id taken
// from the platform's identity response, never from the client.
type Bot struct {
	ID         string       `db:"id"          json:"id"`
	Name       string       `db:"name"        json:"name"`
	Username   *string      `db:"username"    json:"username"`
	UserID     string       `db:"user_id"     json:"userId"`
	BotInfo    JSONSnapshot `db:"bot_info"    json:"botInfo"`
	Token      string       `db:"token"       json:"-"`
	WebhookURL string       `db:"webhook_url" json:"webhookUrl"`
	CreatedAt  time.Time    `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at"  json:"updatedAt"`
}

// JSONSnapshot is an opaque JSON document stored verbatim in a TEXT column.
type JSONSnapshot json.RawMessage

// Value implements driver.Valuer.
func (j JSONSnapshot) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONSnapshot) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case string:
		*j = JSONSnapshot(v)
	case []byte:
		*j = append((*j)[:0], v...)
	default:
		return fmt.Errorf("cannot scan %T into JSONSnapshot", src)
	}
	return nil
}

// MarshalJSON emits the stored document unchanged.
func (j JSONSnapshot) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (j *JSONSnapshot) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}
