package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// NetworkStatus reports whether an RPC backend is attached for a network.
type NetworkStatus interface {
	Connected(network domain.NetworkID) bool
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	catalog  BondCatalog
	networks NetworkStatus
	logger   *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(catalog BondCatalog, networks NetworkStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{catalog: catalog, networks: networks, logger: logHandler(logger, "health")}
}

// HealthCheck reports liveness, the catalog size and per-network RPC
// availability.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	networks := make(map[string]bool, len(domain.AllNetworks()))
	for _, n := range domain.AllNetworks() {
		networks[n.String()] = h.networks != nil && h.networks.Connected(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"bonds":     h.catalog.Len(),
		"networks":  networks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
