// Package telegramtest provides an in-process fake of the Telegram Bot API
// methods used by the platform clients.
package telegramtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Bot is an identity the fake server answers getMe with.
type Bot struct {
	ID        int64
	FirstName string
	Username  string
	// Extra fields are added to the getMe result as-is.
	Extra map[string]any
}

// LastErrorDate is the last_error_date reported for webhooks failed with
// SetWebhookError.
const LastErrorDate = 1700000000

// Call records one Bot API request.
type Call struct {
	Token  string
	Method string
	// URL is the url form value, set for setWebhook.
	URL string
}

// Server is a fake Bot API. Unknown tokens get 401 responses like the real API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	bots     map[string]Bot
	webhooks  map[string]string
	hookError map[string]string
	failures  map[string]string
	calls     []Call
}

// NewServer starts a fake Bot API closed at the end of the test.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		bots:      make(map[string]Bot),
		webhooks:  make(map[string]string),
		hookError: make(map[string]string),
		failures:  make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddBot makes token valid and bound to b.
func (s *Server) AddBot(token string, b Bot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[token] = b
}

// SetWebhookURL presets the webhook reported by getWebhookInfo.
func (s *Server) SetWebhookURL(token, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks[token] = url
}

// SetWebhookError makes getWebhookInfo report a failed delivery for token.
func (s *Server) SetWebhookError(token, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hookError[token] = message
}

// FailMethod makes every call to method fail with a 400 and description.
func (s *Server) FailMethod(method, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = description
}

// Calls returns the recorded calls in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Methods returns the method names of the recorded calls for token.
func (s *Server) Methods(token string) []string {
	var methods []string
	for _, c := range s.Calls() {
		if c.Token == token {
			methods = append(methods, c.Method)
		}
	}
	return methods
}

// Webhook returns the webhook currently set for token.
func (s *Server) Webhook(token string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webhooks[token]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	// Paths look like /bot<token>/<method>.
	rest, ok := strings.CutPrefix(r.URL.Path, "/bot")
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	token, method, ok := strings.Cut(rest, "/")
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	call := Call{Token: token, Method: method}
	if method == "setWebhook" {
		call.URL = r.FormValue("url")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)

	b, known := s.bots[token]
	if !known {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if desc, fail := s.failures[method]; fail {
		writeError(w, http.StatusBadRequest, "Bad Request: "+desc)
		return
	}

	switch method {
	case "getMe":
		me := map[string]any{
			"id":         b.ID,
			"is_bot":     true,
			"first_name": b.FirstName,
			"username":   b.Username,
		}
		for k, v := range b.Extra {
			me[k] = v
		}
		writeResult(w, me)
	case "setWebhook":
		if call.URL == "" {
			writeError(w, http.StatusBadRequest, "Bad Request: bad webhook: An HTTPS URL must be provided for webhook")
			return
		}
		s.webhooks[token] = call.URL
		writeResult(w, true)
	case "deleteWebhook":
		delete(s.webhooks, token)
		writeResult(w, true)
	case "getWebhookInfo":
		info := map[string]any{
			"url":                    s.webhooks[token],
			"has_custom_certificate": false,
			"pending_update_count":   0,
		}
		if msg, ok := s.hookError[token]; ok {
			info["last_error_date"] = LastErrorDate
			info["last_error_message"] = msg
		}
		writeResult(w, info)
	default:
		writeError(w, http.StatusNotFound, "Not Found: method not found")
	}
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func writeError(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": description,
	})
}
