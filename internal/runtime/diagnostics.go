package runtime

import (
	"net/http"

	"github.com/drblury/hostbridge/internal/runtime/bridge"
	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	"github.com/drblury/hostbridge/internal/runtime/store"
)

// Diagnostics is the snapshot served on /api/bridge.
type Diagnostics struct {
	Handlers        []HandlerInfo              `json:"handlers"`
	HostAttached    bool                       `json:"hostAttached"`
	PendingRequests int                        `json:"pendingRequests"`
	IgnoredPushes   uint64                     `json:"ignoredPushes"`
	Outcomes        map[string]store.TxOutcome `json:"outcomes"`
}

// Diagnostics reports the current state of the bridge.
func (s *Service) Diagnostics() Diagnostics {
	return Diagnostics{
		Handlers:        s.Handlers(),
		HostAttached:    s.bridge.Dispatcher.Available(),
		PendingRequests: s.bridge.Registry.Len(),
		IgnoredPushes:   s.bridge.Router.Ignored(),
		Outcomes:        s.bridge.Store.Outcomes(string(bridge.ChannelPendingTxResult)),
	}
}

// StartDiagnosticsServer exposes /api/bridge on the HTTP port, when one is set.
func (s *Service) StartDiagnosticsServer() {
	if s.Conf.HTTPPort <= 0 {
		return
	}
	s.RegisterHTTPHandler(s.Conf.HTTPPort, "/api/bridge", http.HandlerFunc(s.handleGetDiagnostics))
}

func (s *Service) handleGetDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := jsoncodec.Marshal(s.Diagnostics())
	if err != nil {
		s.Logger.Error("Failed to encode diagnostics", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
