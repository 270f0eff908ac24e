package config

import (
	"net/http"

	"github.com/phuslu/log"

	coreConfig "edgar_export/pkg/core/config"
	"edgar_export/pkg/core/logging"
)

// Handler serves the effective configuration.
type Handler struct {
	cfg    *coreConfig.Config
	logger *log.Logger
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config, logger *log.Logger) *Handler {
	return &Handler{cfg: cfg, logger: logging.OrDiscard(logger)}
}

// HandleConfig writes the configuration as YAML, credentials redacted.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	out, err := coreConfig.Dump(h.cfg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render config")
		http.Error(w, "failed to render config", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write([]byte(out))
}
