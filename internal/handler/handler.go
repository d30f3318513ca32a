package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizline/quizline/internal/export"
	"github.com/quizline/quizline/internal/model"
	"github.com/quizline/quizline/internal/quiz"
	"github.com/quizline/quizline/internal/store"
	"github.com/quizline/quizline/internal/twiml"
)

// GeneralErrorText is the only error message a participant ever sees.
// Underlying causes are logged for operators.
const GeneralErrorText = `We're sorry, the quiz is not currently available. Please try again later.`

// maxTurnAttempts bounds refetch-and-retry after a concurrent-update conflict.
const maxTurnAttempts = 3

// Store is the session persistence the handlers need. *store.Store
// implements it.
type Store interface {
	FetchOrCreate(key string) (model.Session, error)
	UpdateSession(key string, expectedLastIndex int, answers []string, lastIndex int) error
	ResetSession(key string) error
	SessionCount() (int, error)
	RecordCompletedRun(sessionKey string, answers []string) (string, error)
	CompletedRunCount() (int, error)
	Ping() error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    Store
	engine   *quiz.Engine
	exporter *export.Exporter
	config   model.QuizConfig
}

// New creates a new Handler.
func New(s Store, e *quiz.Engine, x *export.Exporter, cfg model.QuizConfig) *Handler {
	return &Handler{store: s, engine: e, exporter: x, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sms/quiz", h.handleQuiz)
	r.Post("/sms/admin", h.handleAdmin)
	r.Get("/healthz", h.handleHealth)
}

// NormalizeNumber fixes up sender identities that arrive without a country
// code. Occasionally US numbers are passed bare.
func NormalizeNumber(number string) string {
	if !strings.HasPrefix(number, "+") {
		return "+1" + number
	}
	return number
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	from := r.FormValue("From")
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	key := NormalizeNumber(from)
	body := r.FormValue("Body")

	reply, err := h.runTurn(r.Context(), key, body)
	if err != nil {
		slog.Error("quiz turn failed", "key", key, "error", err)
		reply = GeneralErrorText
	}
	writeTwiML(w, reply)
}

// runTurn drives one quiz turn: fetch-or-create, step, export on completion,
// then persist through a conditional update. On a write conflict the session
// is refetched and the turn replayed; Step is pure so this is safe.
func (h *Handler) runTurn(ctx context.Context, key, body string) (string, error) {
	sess, err := h.store.FetchOrCreate(key)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxTurnAttempts; attempt++ {
		res, err := h.engine.Step(sess, body)
		if err != nil {
			return "", err
		}

		if res.Completed {
			// Export before persisting the reset: a failed export leaves the
			// stored session at the final question, so the next inbound
			// message replays this terminal turn.
			if err := h.exporter.Submit(ctx, key, res.Answers); err != nil {
				return "", err
			}
			err = h.store.UpdateSession(key, sess.LastQuestionIndex, nil, model.NotStartedIndex)
			if errors.Is(err, store.ErrConflict) {
				if sess, err = h.store.FetchOrCreate(key); err != nil {
					return "", err
				}
				continue
			}
			if err != nil {
				return "", err
			}
			// The audit row is secondary to the export itself; failing the
			// turn here would replay the export and duplicate the row at the
			// sink.
			if _, err := h.store.RecordCompletedRun(key, res.Answers); err != nil {
				slog.Warn("failed to record completed run", "key", key, "error", err)
			}
			slog.Info("quiz completed", "key", key, "answers", len(res.Answers))
			return res.Reply, nil
		}

		err = h.store.UpdateSession(key, sess.LastQuestionIndex, res.Answers, res.LastQuestionIndex)
		if errors.Is(err, store.ErrConflict) {
			if sess, err = h.store.FetchOrCreate(key); err != nil {
				return "", err
			}
			continue
		}
		if err != nil {
			return "", err
		}
		return res.Reply, nil
	}

	return "", fmt.Errorf("session %s: gave up after %d conflicting updates", key, maxTurnAttempts)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		slog.Error("health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeTwiML(w http.ResponseWriter, msg string) {
	doc, err := twiml.Reply(msg)
	if err != nil {
		slog.Error("render error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write(doc)
}
