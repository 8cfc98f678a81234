package sync

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_offline/models"
)

// Handlers exposes the sync engine over HTTP for the local UI: current
// status, manual trigger, run history and failed-record management.
type Handlers struct {
	orch *Orchestrator
}

func NewHandlers(orch *Orchestrator) *Handlers {
	return &Handlers{orch: orch}
}

func (h *Handlers) Register(r *gin.RouterGroup) {
	r.GET("/sync/status", h.status)
	r.POST("/sync/trigger", h.triggerSync)
	r.GET("/sync/history", h.history)
	r.GET("/sync/errors", h.recordErrors)
	r.POST("/sync/retry-failed", h.retryFailed)
}

func (h *Handlers) status(c *gin.Context) {
	report, err := h.orch.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) triggerSync(c *gin.Context) {
	queued := h.orch.TriggerSync(models.SyncTriggeredManual)
	c.JSON(http.StatusAccepted, gin.H{
		"queued": queued,
		"state":  h.orch.State(),
	})
}

func (h *Handlers) history(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := models.ListSyncRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handlers) recordErrors(c *gin.Context) {
	runId, _ := strconv.Atoi(c.DefaultQuery("run_id", "0"))
	errs, err := models.ListSyncRecordErrors(c.Request.Context(), uint(runId))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": errs})
}

func (h *Handlers) retryFailed(c *gin.Context) {
	revived, err := models.RetryFailedSyncItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if revived > 0 {
		h.orch.TriggerSync(models.SyncTriggeredRetry)
	}
	c.JSON(http.StatusOK, gin.H{"revived": revived})
}
