package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lemontycoon/internal/config"
	"lemontycoon/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Version is reported by /healthz and overridden at link time.
var Version = "dev"

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	game *game.Service
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		game: gameSvc,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "game": "Lemonade Tycoon", "version": Version})
	})

	r.Route("/v1", s.gameRoutes)
	r.Route("/api", s.gameRoutes)
}

func (s *Server) gameRoutes(r chi.Router) {
	r.Get("/state", s.handleState)
	r.Post("/price", s.handlePrice)
	r.Post("/recipe", s.handleRecipe)
	r.Post("/buy", s.handleBuy)
	r.Post("/upgrade", s.handleUpgrade)
	r.Post("/start-day", s.handleStartDay)

	r.Group(func(r chi.Router) {
		r.Use(s.adminMiddleware)
		r.Post("/reset", s.handleReset)
	})
}

// adminMiddleware guards destructive routes when an admin token is configured.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			writeDomainError(w, fmt.Errorf("%w: admin token required", game.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.State(r.Context()))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Price *float64 `json:"price"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if in.Price == nil {
		writeDomainError(w, fmt.Errorf("%w: price is required", game.ErrInvalidPrice))
		return
	}
	st, err := s.game.SetPrice(r.Context(), game.PriceInput{
		Price:          *in.Price,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, st)
}

// handleRecipe leaves any ratio the body omits unchanged.
func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LemonRatio *float64 `json:"lemon_ratio"`
		SugarRatio *float64 `json:"sugar_ratio"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	st, err := s.game.SetRecipe(r.Context(), game.RecipeInput{
		LemonRatio:     in.LemonRatio,
		SugarRatio:     in.SugarRatio,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, st)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Item     string `json:"item"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	st, err := s.game.Buy(r.Context(), game.BuyInput{
		Item:           strings.TrimSpace(in.Item),
		Quantity:       in.Quantity,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, st)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	st, err := s.game.BuyUpgrade(r.Context(), game.UpgradeInput{
		Track:          strings.TrimSpace(in.Type),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, st)
}

func (s *Server) handleStartDay(w http.ResponseWriter, r *http.Request) {
	report, err := s.game.StartDay(r.Context(), game.StartDayInput{IdempotencyKey: idempotencyKey(r)})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		game.DayReport
	}{Success: true, DayReport: report})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.game.Reset(r.Context(), game.ResetInput{IdempotencyKey: idempotencyKey(r)})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, st)
}

func writeState(w http.ResponseWriter, st game.Snapshot) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "state": st})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrDuplicateIdempotency):
		writeError(w, http.StatusConflict, "duplicate_request", err.Error())
	case errors.Is(err, game.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, game.ErrUnknownItem):
		writeError(w, http.StatusBadRequest, "unknown_item", err.Error())
	case errors.Is(err, game.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, game.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient_funds", err.Error())
	case errors.Is(err, game.ErrUnknownUpgrade):
		writeError(w, http.StatusBadRequest, "unknown_upgrade", err.Error())
	case errors.Is(err, game.ErrMaxLevel):
		writeError(w, http.StatusBadRequest, "max_level", err.Error())
	case errors.Is(err, game.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": strings.TrimSpace(message),
	})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
