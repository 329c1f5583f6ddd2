package server

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/database"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/scheduler"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves host and process monitoring for administrators
type SystemHandlers struct {
	db          *database.DB
	scheduler   *scheduler.Scheduler
	bus         *events.Bus
	dataDir     string
	startupTime time.Time
	log         zerolog.Logger

	// Replaceable in tests
	cpuPercent func() (float64, error)
	memPercent func() (float64, error)
	diskUsage  func(path string) (*disk.UsageStat, error)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(db *database.DB, sched *scheduler.Scheduler, bus *events.Bus, dataDir string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:          db,
		scheduler:   sched,
		bus:         bus,
		dataDir:     dataDir,
		startupTime: time.Now(),
		log:         log.With().Str("component", "system_handlers").Logger(),
		cpuPercent:  sampleCPU,
		memPercent:  sampleMemory,
		diskUsage:   disk.Usage,
	}
}

// DiskStats describes the volume holding the data directory
type DiskStats struct {
	Path        string  `json:"path"`
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// SystemStatusResponse is returned by GET /api/admin/system
type SystemStatusResponse struct {
	UptimeHours   float64    `json:"uptime_hours"`
	CPUPercent    float64    `json:"cpu_percent"`
	RAMPercent    float64    `json:"ram_percent"`
	Disk          *DiskStats `json:"disk,omitempty"`
	Goroutines    int        `json:"goroutines"`
	HeapMB        float64    `json:"heap_mb"`
	Subscribers   int        `json:"event_subscribers"`
	DroppedEvents uint64     `json:"dropped_events"`
	LastCheck     string     `json:"last_check"`
}

// HandleSystemStatus handles GET /api/admin/system
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	response := SystemStatusResponse{
		UptimeHours: time.Since(h.startupTime).Hours(),
		Goroutines:  runtime.NumGoroutine(),
		HeapMB:      float64(ms.HeapAlloc) / 1024 / 1024,
		LastCheck:   time.Now().Format(time.RFC3339),
	}

	cpuPercent, err := h.cpuPercent()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	}
	response.CPUPercent = cpuPercent

	ramPercent, err := h.memPercent()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}
	response.RAMPercent = ramPercent

	if usage, err := h.diskUsage(h.dataDir); err != nil {
		h.log.Warn().Err(err).Str("path", h.dataDir).Msg("Failed to get disk usage")
	} else {
		response.Disk = &DiskStats{
			Path:        h.dataDir,
			TotalMB:     float64(usage.Total) / 1024 / 1024,
			FreeMB:      float64(usage.Free) / 1024 / 1024,
			UsedPercent: usage.UsedPercent,
		}
	}

	if h.bus != nil {
		response.Subscribers = h.bus.Subscribers()
		response.DroppedEvents = h.bus.Dropped()
	}

	utils.WriteJSON(w, h.log, http.StatusOK, response)
}

// HandleDatabaseStats handles GET /api/admin/system/database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to get database stats")
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"name":  h.db.Name(),
		"path":  h.db.Path(),
		"stats": stats,
	})
}

// JobsStatusResponse is returned by GET /api/admin/jobs
type JobsStatusResponse struct {
	Jobs  []scheduler.JobStatus `json:"jobs"`
	Count int                   `json:"count"`
}

// HandleJobsStatus handles GET /api/admin/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.scheduler != nil {
		jobs = h.scheduler.Jobs()
	}
	utils.WriteJSON(w, h.log, http.StatusOK, JobsStatusResponse{Jobs: jobs, Count: len(jobs)})
}

// HandleTriggerJob handles POST /api/admin/jobs/{name}/run. The job runs synchronously.
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.scheduler == nil {
		utils.WriteError(w, h.log, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	start := time.Now()
	err := h.scheduler.RunNow(name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		utils.WriteError(w, h.log, http.StatusNotFound, "Unknown job")
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		utils.WriteError(w, h.log, http.StatusConflict, "Job already running")
		return
	case err != nil:
		h.log.Error().Err(err).Str("job", name).Msg("Triggered job failed")
		utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
			"job":     name,
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"job":         name,
		"success":     true,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// sampleCPU averages all CPUs over 100ms to keep the endpoint responsive
func sampleCPU() (float64, error) {
	pct, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(pct) == 0 {
		return 0, err
	}
	return pct[0], nil
}

func sampleMemory() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
