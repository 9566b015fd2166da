package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paradestate/internal/service/parade"
)

// Sweep 手动触发一次过期清理；dryRun=true 时只返回计划
// POST /api/sweep?dryRun=true
func (h *Handler) Sweep(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dryRun", "false"))
	res, err := h.svc.RunSweep(c.Request.Context(), dryRun)
	if errors.Is(err, parade.ErrSweepRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "清理正在执行"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runId":    res.RunID,
		"report":   res.Report,
		"message":  res.Report.Message(),
		"reverted": res.Report.Reverted(),
	})
}
