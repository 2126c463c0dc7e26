package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aidosk/tutorgate/pkg/guard"
	"github.com/aidosk/tutorgate/pkg/ledger"
	"github.com/aidosk/tutorgate/pkg/llms"
	"github.com/aidosk/tutorgate/pkg/ratelimit"
)

// Completer is the completion gateway contract. The production implementation
// is llms.OpenAIProvider; tests substitute a stub.
type Completer interface {
	Complete(ctx context.Context, question string) (string, error)
}

// ChatHandler orchestrates one question: admission by attempt count,
// validation, the upstream call and response assembly.
type ChatHandler struct {
	guard       *guard.Guard
	ledger      ledger.Store
	completer   Completer
	maxAttempts int
}

// NewChatHandler wires the handler's collaborators.
func NewChatHandler(g *guard.Guard, store ledger.Store, completer Completer, maxAttempts int) *ChatHandler {
	return &ChatHandler{
		guard:       g,
		ledger:      store,
		completer:   completer,
		maxAttempts: maxAttempts,
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

// HandleChat serves POST /api/chat.
//
// The attempt check happens before the body is even parsed, and the counter is
// only incremented after a successful answer: filtered and failed requests do
// not consume quota. The check and the increment are not atomic across the
// upstream call; see the ledger package for why that race is accepted.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := ratelimit.ClientIP(r)

	count, err := h.ledger.Get(ctx, clientID)
	if err != nil {
		slog.Error("Attempt ledger read failed", "error", err, "client", clientID)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if count >= h.maxAttempts {
		writeError(w, http.StatusTooManyRequests, "Limit of questions reached for this session.")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Empty question")
		return
	}

	question, err := h.guard.Validate(req.Question)
	if err != nil {
		var verr *guard.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "Empty question")
		return
	}

	answer, err := h.completer.Complete(ctx, question)
	if err != nil {
		h.writeCompletionError(w, clientID, err)
		return
	}

	newCount, err := h.ledger.Increment(ctx, clientID)
	if err != nil {
		// The answer is already in hand; losing one tick of quota
		// accounting is preferable to failing the request.
		slog.Warn("Attempt ledger increment failed", "error", err, "client", clientID)
		newCount = count + 1
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":    answer,
		"remaining": h.maxAttempts - newCount,
	})
}

func (h *ChatHandler) writeCompletionError(w http.ResponseWriter, clientID string, err error) {
	switch {
	case errors.Is(err, llms.ErrMissingAPIKey):
		slog.Error("Completion gateway misconfigured: no API key set")
		writeError(w, http.StatusInternalServerError, "Server misconfigured: missing OPENAI_API_KEY")

	case errors.Is(err, llms.ErrEmptyAnswer):
		slog.Error("Completion returned no usable answer", "client", clientID)
		writeError(w, http.StatusInternalServerError, "No answer from AI")

	default:
		// Upstream failures and transport errors alike: detail stays in
		// the log, the caller sees a generic message.
		slog.Error("Completion call failed", "error", err, "client", clientID)
		writeError(w, http.StatusInternalServerError, "AI service error")
	}
}

// HandleHealth serves GET /api/health. No side effects.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
