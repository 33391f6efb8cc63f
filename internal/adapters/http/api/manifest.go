package api

import "net/http"

// ManifestHandler serves reference table maintenance.
type ManifestHandler struct {
	deps Dependencies
}

// NewManifestHandler creates a new manifest handler.
func NewManifestHandler(deps Dependencies) *ManifestHandler {
	return &ManifestHandler{deps: deps}
}

// HandleReload handles POST /manifest/reload. The current tables stay in
// place when the reload fails. The route is meant for operators and carries
// no authentication; deployments must keep it off public listeners.
func (h *ManifestHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ReloadTables(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
