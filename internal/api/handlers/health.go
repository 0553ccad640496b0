package handlers

import (
	"net/http"

	"github.com/hardsub/hardsub/internal/monitor"
)

type HealthHandler struct {
	monitor *monitor.Monitor
	version string
}

func NewHealthHandler(mon *monitor.Monitor, version string) *HealthHandler {
	return &HealthHandler{monitor: mon, version: version}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"busy":    h.monitor.Busy(),
		"version": h.version,
	}
	if job := h.monitor.Current(); job != "" {
		resp["job"] = job
	}
	jsonResponse(w, resp, http.StatusOK)
}
