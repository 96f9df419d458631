package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelanni/realexam/internal/i18n"
	"github.com/pavelanni/realexam/internal/model"
	"github.com/pavelanni/realexam/internal/store"
)

// Handler serves the read-only question bank API.
type Handler struct {
	store *store.Store
	now   func() time.Time
}

// New creates a new Handler.
func New(s *store.Store) *Handler {
	return &Handler{store: s, now: time.Now}
}

// Router returns a chi router with logging, recovery and localization.
func (h *Handler) Router(lang string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(i18n.Middleware(lang))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/questions", h.handleListQuestions)
	r.Get("/api/questions/{id}", h.handleGetQuestion)
	r.Get("/api/stats", h.handleStats)
	r.Get("/api/bank", h.handleBank)
}

type listResponse struct {
	Count     int                  `json:"count"`
	Message   string               `json:"message"`
	Questions []model.BankQuestion `json:"questions"`
}

type statsResponse struct {
	Total    int                        `json:"total"`
	ByType   map[model.QuestionType]int `json:"byType"`
	Years    []int                      `json:"years"`
	LastSync string                     `json:"lastSync,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	var f store.Filter
	q := r.URL.Query()
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil || year < 1000 || year > 9999 {
			h.writeError(w, r, http.StatusBadRequest, "ErrInvalidYear")
			return
		}
		f.Year = year
	}
	if t := q.Get("type"); t != "" {
		f.Type = model.QuestionType(t)
		if !f.Type.Valid() {
			h.writeError(w, r, http.StatusBadRequest, "ErrInvalidType")
			return
		}
	}
	f.Subject = q.Get("subject")

	questions, err := h.store.ListQuestions(f)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Count:     len(questions),
		Message:   i18n.Tp(r.Context(), "QuestionsFound", len(questions)),
		Questions: questions,
	})
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.GetQuestion(chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.QuestionCount()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	byType, err := h.store.CountByType()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	years, err := h.store.Years()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	last, err := h.store.LastSync()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	resp := statsResponse{Total: total, ByType: byType, Years: years}
	if !last.IsZero() {
		resp.LastSync = last.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.store.ExportBank(h.now())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "ErrInternal")
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorResponse{Error: i18n.T(r.Context(), msgID)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
