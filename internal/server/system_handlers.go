package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/pgatica/financefolio/internal/database"
	"github.com/pgatica/financefolio/internal/events"
	"github.com/pgatica/financefolio/internal/modules/ledger"
	"github.com/pgatica/financefolio/internal/modules/quotes"
)

// SystemHandlers exposes process and storage health for monitoring
type SystemHandlers struct {
	log           zerolog.Logger
	ledgerDB      *database.DB
	ledgerService *ledger.Service
	quoteCache    *quotes.Cache
	eventManager  *events.Manager
	startedAt     time.Time
}

// NewSystemHandlers creates the system monitoring handlers
func NewSystemHandlers(log zerolog.Logger, ledgerDB *database.DB, ledgerService *ledger.Service, quoteCache *quotes.Cache, eventManager *events.Manager) *SystemHandlers {
	return &SystemHandlers{
		log:           log.With().Str("handler", "system").Logger(),
		ledgerDB:      ledgerDB,
		ledgerService: ledgerService,
		quoteCache:    quoteCache,
		eventManager:  eventManager,
		startedAt:     time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	status := "running"
	databaseStatus := "ok"
	if err := h.ledgerDB.HealthCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Database health check failed")
		status = "degraded"
		databaseStatus = "error"
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SystemStatusChanged, "system", &events.SystemStatusChangedData{
			Status:    status,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"status":         status,
			"database":       databaseStatus,
			"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
			"cpu_percent":    cpuPercent,
			"memory_percent": memPercent,
			"goroutines":     runtime.NumGoroutine(),
			"transactions":   h.ledgerService.Count(),
			"cached_quotes":  h.quoteCache.Count(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledgerDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to get database stats",
		})
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"name":           h.ledgerDB.Name(),
			"profile":        string(h.ledgerDB.Profile()),
			"size_bytes":     stats.SizeBytes,
			"wal_size_bytes": stats.WALSizeBytes,
			"page_count":     stats.PageCount,
			"page_size":      stats.PageSize,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// getSystemStats returns CPU and RAM usage percentages.
// Uses a 100ms sampling window so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
