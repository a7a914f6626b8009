package api

import (
	"encoding/json"
	"net/http"

	"github.com/edgard/botmanager/internal/auth"
	"github.com/edgard/botmanager/internal/bots"
	apperrors "github.com/edgard/botmanager/internal/errors"
)

const maxBodyBytes = 1 << 16

// requireUser authenticates the bearer API key and stores the user id in the
// request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.Authenticate(r.Context(), s.store, auth.BearerToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), user.ID)))
	})
}

// handleAddBot responds with the created bot, or null when it could not be stored.
func (s *Server) handleAddBot(w http.ResponseWriter, r *http.Request) {
	var input bots.RegisterInput
	if !s.decode(w, r, &input) {
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	bot, err := s.bots.Register(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

func (s *Server) handleRestartBot(w http.ResponseWriter, r *http.Request) {
	var input bots.RestartInput
	if !s.decode(w, r, &input) {
		return
	}
	writeJSON(w, http.StatusOK, s.bots.Restart(r.Context(), input))
}

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	list, err := s.bots.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, apperrors.NewValidationError("invalid JSON body", err))
		return false
	}
	if err := s.bots.Validate(dst); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func statusFor(err error) int {
	switch apperrors.Code(err) {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodePlatform:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{
		"error": err.Error(),
		"code":  apperrors.Code(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
