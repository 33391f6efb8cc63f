package api

import (
	"net/http"

	"github.com/vigilance/vanguard/internal/domain/items"
)

// CharacterHandler serves the character-scoped routes.
type CharacterHandler struct {
	deps Dependencies
}

// NewCharacterHandler creates a new character handler.
func NewCharacterHandler(deps Dependencies) *CharacterHandler {
	return &CharacterHandler{deps: deps}
}

// HandleItems handles GET /characters/{userID}/{characterID}/items?location=.
func (h *CharacterHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	loc := items.Equipment
	if v := r.URL.Query().Get("location"); v != "" {
		var err error
		if loc, err = items.ParseLocation(v); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	res, err := h.deps.Items(r.Context(), r.PathValue("userID"), r.PathValue("characterID"), loc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLoadout handles GET /characters/{userID}/{characterID}/loadout.
func (h *CharacterHandler) HandleLoadout(w http.ResponseWriter, r *http.Request) {
	l, err := h.deps.Loadout(r.Context(), r.PathValue("userID"), r.PathValue("characterID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// HandleActivities handles GET /characters/{userID}/{characterID}/activities?mode=&count=.
// count=0 or absent returns the recent window; a negative count walks the
// full history.
func (h *CharacterHandler) HandleActivities(w http.ResponseWriter, r *http.Request) {
	mode, err := intParam(r, "mode", 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	count, err := intParam(r, "count", 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.Activities(r.Context(), r.PathValue("userID"), r.PathValue("characterID"), mode, count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
