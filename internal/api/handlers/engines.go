package handlers

import (
	"net/http"

	"github.com/hardsub/hardsub/internal/whisper"
)

// EngineCatalog lists the registered engines; whisper.Service satisfies it.
type EngineCatalog interface {
	EngineNames() []string
	DefaultEngine() string
}

type EnginesHandler struct {
	service EngineCatalog
}

func NewEnginesHandler(service EngineCatalog) *EnginesHandler {
	return &EnginesHandler{service: service}
}

// List returns the registered engines, the default, and the model names
// the faster-whisper engine accepts, for frontend dropdowns.
func (h *EnginesHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"engines": h.service.EngineNames(),
		"default": h.service.DefaultEngine(),
		"models":  whisper.Models,
	}, http.StatusOK)
}
