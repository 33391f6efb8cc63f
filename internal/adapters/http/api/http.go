// Package api exposes the account, item, activity and weapon statistics flows
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vigilance/vanguard/internal/adapters/bungie/gateway"
	"github.com/vigilance/vanguard/internal/adapters/repository"
	service "github.com/vigilance/vanguard/internal/app"
	"github.com/vigilance/vanguard/internal/domain/activity"
	"github.com/vigilance/vanguard/internal/domain/items"
	"github.com/vigilance/vanguard/internal/domain/model"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Authorize(ctx context.Context, code string) (repository.Account, error)
	Characters(ctx context.Context, userID string) ([]model.Character, error)
	Items(ctx context.Context, userID, characterID string, loc items.Location) (model.NormalizeResult, error)
	Loadout(ctx context.Context, userID, characterID string) (model.Loadout, error)
	Activities(ctx context.Context, userID, characterID string, mode, count int) ([]model.ActivitySummary, error)
	WeaponStats(ctx context.Context, userID string, pve bool) ([]model.WeaponStatRecord, error)
	ReloadTables(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	accountHandler   *AccountHandler
	characterHandler *CharacterHandler
	manifestHandler  *ManifestHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		accountHandler:   NewAccountHandler(deps),
		characterHandler: NewCharacterHandler(deps),
		manifestHandler:  NewManifestHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /authorize", MetricsMiddleware(s.accountHandler.HandleAuthorize, "authorize"))
	mux.HandleFunc("GET /users/{userID}/characters", MetricsMiddleware(s.accountHandler.HandleCharacters, "characters"))
	mux.HandleFunc("GET /users/{userID}/weapon-stats", MetricsMiddleware(s.accountHandler.HandleWeaponStats, "weapon_stats"))

	mux.HandleFunc("GET /characters/{userID}/{characterID}/items", MetricsMiddleware(s.characterHandler.HandleItems, "items"))
	mux.HandleFunc("GET /characters/{userID}/{characterID}/loadout", MetricsMiddleware(s.characterHandler.HandleLoadout, "loadout"))
	mux.HandleFunc("GET /characters/{userID}/{characterID}/activities", MetricsMiddleware(s.characterHandler.HandleActivities, "activities"))

	mux.HandleFunc("POST /manifest/reload", MetricsMiddleware(s.manifestHandler.HandleReload, "manifest_reload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps a service error onto a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, gateway.ErrStaleAuth):
		return http.StatusUnauthorized, "stale_auth"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, items.ErrUnknownLocation),
		errors.Is(err, activity.ErrInvalidRequest),
		errors.Is(err, service.ErrMissingCode):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNoMembership):
		return http.StatusUnprocessableEntity, "no_membership"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, gateway.ErrGateway), errors.Is(err, activity.ErrPagination):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}

// boolParam reads an optional boolean query parameter.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", ErrBadRequest, name)
	}
	return b, nil
}
