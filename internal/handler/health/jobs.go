package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
)

// SessionSweepJob is the job that disconnects expired wallet sessions.
const SessionSweepJob = "session_sweep"

// sweepFailureLimit is how many sweeps in a row may fail before expired
// sessions are considered unenforced.
const sweepFailureLimit = 3

// Jobs reports whether expired wallet sessions are still being swept
// @Summary Background jobs health check
// @Description Reports the session sweep job and any other scheduled jobs
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} JobsHealthResponse
// @Success 206 {object} JobsHealthResponse
// @Failure 503 {object} JobsHealthResponse
// @Router /api/v1/health/jobs [get]
func (h *HealthHandler) Jobs(c *gin.Context) {
	start := time.Now()

	if h.jobStatusManager == nil {
		c.JSON(http.StatusServiceUnavailable, JobsHealthResponse{
			Status:     "unhealthy",
			Reason:     "job scheduler is not running, expired sessions are not swept",
			Timestamp:  time.Now(),
			Jobs:       make(map[string]monitoring.JobStatus),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return
	}

	jobs := h.jobStatusManager.GetAllJobStatuses()
	summary := h.jobStatusManager.GetJobsSummary()
	status, reason := sweepHealth(jobs, summary)

	response := JobsHealthResponse{
		Status:     status,
		Reason:     reason,
		Timestamp:  time.Now(),
		Jobs:       jobs,
		Summary:    summary,
		DurationMs: time.Since(start).Milliseconds(),
	}

	statusCode := http.StatusOK
	switch status {
	case "unhealthy":
		statusCode = http.StatusServiceUnavailable
	case "degraded":
		statusCode = http.StatusPartialContent
	}

	h.logger.Info("[Jobs] health check completed", map[string]string{
		"status":         status,
		"reason":         reason,
		"duration":       fmt.Sprintf("%dms", response.DurationMs),
		"unhealthy_jobs": fmt.Sprint(summary.UnhealthyJobs),
		"stalled_jobs":   fmt.Sprint(summary.StalledJobs),
	})

	c.JSON(statusCode, response)
}

// sweepHealth grades the scheduler. Only the session sweep can make it unhealthy
// on failures; a stalled job always does.
func sweepHealth(jobs map[string]monitoring.JobStatus, summary monitoring.JobsSummary) (string, string) {
	if summary.StalledJobs > 0 {
		return "unhealthy", fmt.Sprintf("%d job(s) stalled", summary.StalledJobs)
	}

	if sweep, ok := jobs[SessionSweepJob]; ok &&
		sweep.Status == monitoring.JobStatusFailed && sweep.ConsecutiveFailures >= sweepFailureLimit {
		return "unhealthy", fmt.Sprintf("%s failed %d times in a row, expired sessions are not being disconnected",
			SessionSweepJob, sweep.ConsecutiveFailures)
	}

	if summary.UnhealthyJobs > 0 {
		return "degraded", fmt.Sprintf("%d job(s) failing", summary.UnhealthyJobs)
	}

	return "healthy", ""
}
