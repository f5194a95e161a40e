package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/WessleyAI/wessley-sales/engine/assistant"
	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/WessleyAI/wessley-sales/internal/app"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
	"github.com/WessleyAI/wessley-sales/pkg/mid"
	"github.com/WessleyAI/wessley-sales/pkg/vehiclenlp"
	"github.com/go-chi/chi/v5"
)

// TurnHandler runs one chat turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req assistant.Request) (assistant.Response, error)
}

// ConversationReader returns stored conversations.
type ConversationReader interface {
	Snapshot(ctx context.Context, userID string) (*conversation.State, error)
}

// maxBody bounds JSON request bodies.
const maxBody = 64 << 10

func newRouter(a *app.App, corsOrigin string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(corsOrigin),
		mid.OTel("wessley-sales-api"),
	)

	r.Get("/api/health", handleHealth(a.Catalog.Len))
	r.Get("/metrics", a.Metrics.Handler().ServeHTTP)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", handleChat(a.Orchestrator, logger))
		r.Get("/conversations/{userID}", handleConversation(a.Conversation, logger))
		r.Post("/search", handleSearch(a.Search, logger))
		r.Post("/finance", handleFinance(a.Calculator))
	})
	return r
}

// --- Handlers ---

func handleHealth(vehicles func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "vehicles": vehicles()})
	}
}

func handleChat(turns TurnHandler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assistant.Request
		if !decode(w, r, &req) {
			return
		}
		resp, err := turns.HandleTurn(r.Context(), req)
		if err != nil {
			if !domain.IsValidation(err) {
				logger.Error("chat turn failed", "user_id", req.UserID, "err", err)
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleConversation(conv ConversationReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		s, err := conv.Snapshot(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, conversation.ErrNotFound) {
				logger.Error("load conversation", "user_id", userID, "err", err)
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// SearchRequest is the body of POST /api/search. Without filters they are
// read from the query text.
type SearchRequest struct {
	Query   string          `json:"query"`
	Filters *domain.Filters `json:"filters,omitempty"`
	TopK    int             `json:"top_k,omitempty"`
}

func handleSearch(search assistant.Searcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if !decode(w, r, &req) {
			return
		}
		prefs := vehiclenlp.ParsePreferences(req.Query)
		if req.Filters != nil {
			prefs.Filters = *req.Filters
		}
		if req.TopK == 0 {
			req.TopK = 3
		}
		results, err := search.Search(r.Context(), prefs, req.TopK)
		if err != nil {
			if !domain.IsValidation(err) {
				logger.Error("search failed", "query", req.Query, "err", err)
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"filters": prefs.Filters, "results": results})
	}
}

// FinanceRequest is the body of POST /api/finance. With Options set (or no
// term) it lists alternative plans, optionally capped by MaxMonthly.
type FinanceRequest struct {
	domain.FinancingInput
	MaxMonthly float64 `json:"max_monthly,omitempty"`
	Options    bool    `json:"options,omitempty"`
}

func handleFinance(calc *finance.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FinanceRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Options || req.TermYears == 0 {
			plans, err := calc.Options(req.Price, req.MaxMonthly)
			if err != nil {
				writeError(w, err)
				return
			}
			rounded := make([]domain.FinancingPlan, len(plans))
			for i, p := range plans {
				rounded[i] = p.Rounded()
			}
			writeJSON(w, http.StatusOK, map[string]any{"plans": rounded, "summary": finance.FormatOptions(plans)})
			return
		}
		plan, err := calc.Compute(req.FinancingInput)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"plan": plan.Rounded(), "summary": finance.Format(plan)})
	}
}

// --- JSON helpers ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": publicError(err)})
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCatalog), errors.Is(err, domain.ErrDependencyUnavailable), llm.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicError hides internal detail from clients.
func publicError(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return ve.Field + ": " + ve.Wrapped.Error()
		}
		return err.Error()
	case http.StatusNotFound:
		return "not found"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "internal server error"
	}
}
