package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// AccountHandler serves the user-scoped routes.
type AccountHandler struct {
	deps Dependencies
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(deps Dependencies) *AccountHandler {
	return &AccountHandler{deps: deps}
}

type authorizeRequest struct {
	Code string `json:"code"`
}

// accountResponse never carries tokens.
type accountResponse struct {
	UserID       string `json:"userId"`
	PlatformID   string `json:"platformId"`
	PlatformType int    `json:"platformType"`
	DisplayName  string `json:"displayName"`
}

// HandleAuthorize handles POST /authorize. The code comes from a JSON body
// or, failing that, the code query parameter.
func (h *AccountHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON", ErrBadRequest))
			return
		}
	}
	if req.Code == "" {
		req.Code = r.URL.Query().Get("code")
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing code", ErrBadRequest))
		return
	}

	a, err := h.deps.Authorize(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		UserID:       a.UserID,
		PlatformID:   a.PlatformID,
		PlatformType: a.PlatformType,
		DisplayName:  a.DisplayName,
	})
}

// HandleCharacters handles GET /users/{userID}/characters.
func (h *AccountHandler) HandleCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := h.deps.Characters(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

// HandleWeaponStats handles GET /users/{userID}/weapon-stats?pve=true|false.
// PvE is the default.
func (h *AccountHandler) HandleWeaponStats(w http.ResponseWriter, r *http.Request) {
	pve, err := boolParam(r, "pve", true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := h.deps.WeaponStats(r.Context(), r.PathValue("userID"), pve)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
