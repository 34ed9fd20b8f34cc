package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/bondregistry/internal/bond"
	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// BondCatalog is the read side of the bond registry.
type BondCatalog interface {
	Get(name string) (*bond.Descriptor, error)
	All() []*bond.Descriptor
	OfType(t domain.BondType) []*bond.Descriptor
	Len() int
}

// Connector hands out read-only connections per network.
type Connector interface {
	ReadOnly(network domain.NetworkID) (contract.Connection, error)
}

// BondHandler serves the bond catalog endpoints.
type BondHandler struct {
	catalog BondCatalog
	conns   Connector
	logger  *slog.Logger
}

// NewBondHandler creates a BondHandler.
func NewBondHandler(catalog BondCatalog, conns Connector, logger *slog.Logger) *BondHandler {
	return &BondHandler{catalog: catalog, conns: conns, logger: logHandler(logger, "bond")}
}

// ListBonds returns bond summaries, optionally filtered by ?type=lp|stable.
// GET /api/bonds
func (h *BondHandler) ListBonds(w http.ResponseWriter, r *http.Request) {
	descs := h.catalog.All()
	if v := r.URL.Query().Get("type"); v != "" {
		t, err := domain.ParseBondType(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "type must be lp or stable")
			return
		}
		descs = h.catalog.OfType(t)
	}

	summaries := make([]domain.BondSummary, 0, len(descs))
	for _, d := range descs {
		summaries = append(summaries, d.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bonds": summaries,
		"count": len(summaries),
	})
}

// GetBond returns one bond summary.
// GET /api/bonds/{name}
func (h *BondHandler) GetBond(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d.Summary())
}

// contractView is the JSON shape of one bound contract handle.
type contractView struct {
	Address   string `json:"address"`
	Interface string `json:"interface"`
	ReadOnly  bool   `json:"read_only"`
}

func viewOf(h *contract.Handle) contractView {
	return contractView{
		Address:   h.Address().Hex(),
		Interface: h.Interface().Name,
		ReadOnly:  h.Connection().IsReadOnly(),
	}
}

// GetContracts binds the bond and reserve contracts of one bond on one
// network and describes the resulting handles.
// GET /api/bonds/{name}/contracts/{network}
func (h *BondHandler) GetContracts(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	network, err := domain.ParseNetworkID(r.PathValue("network"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown network")
		return
	}
	conn, err := h.conns.ReadOnly(network)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown network")
		return
	}

	bondHandle, err := d.ContractForBond(network, conn)
	if err != nil {
		h.writeLookupError(w, r, d.Name(), err)
		return
	}
	reserveHandle, err := d.ContractForReserve(network, conn)
	if err != nil {
		h.writeLookupError(w, r, d.Name(), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bond":      d.Name(),
		"network":   network.String(),
		"chain_id":  network.ChainID(),
		"connected": conn.Backend != nil,
		"contracts": map[string]contractView{
			"bond":    viewOf(bondHandle),
			"reserve": viewOf(reserveHandle),
		},
	})
}

func (h *BondHandler) lookup(w http.ResponseWriter, r *http.Request) (*bond.Descriptor, bool) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing bond name")
		return nil, false
	}
	d, err := h.catalog.Get(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bond not found")
			return nil, false
		}
		h.logger.ErrorContext(r.Context(), "handler: get bond failed",
			slog.String("bond", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get bond")
		return nil, false
	}
	return d, true
}

func (h *BondHandler) writeLookupError(w http.ResponseWriter, r *http.Request, name string, err error) {
	if errors.Is(err, domain.ErrNetworkNotFound) {
		writeError(w, http.StatusNotFound, "bond has no addresses on network")
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: bind contract failed",
		slog.String("bond", name),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "failed to bind contract")
}
