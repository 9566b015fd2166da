package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paradestate/internal/store"
)

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

// ListHistory 审计记录，新的在前
// GET /api/history?kind=update|sweep&limit=50
func (h *Handler) ListHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "审计日志未启用"})
		return
	}
	kind := c.Query("kind")
	if kind != "" && kind != store.KindUpdate && kind != store.KindSweep {
		c.JSON(http.StatusBadRequest, gin.H{"error": "非法 kind"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "非法 limit"})
		return
	}
	items, err := h.history.History(kind, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetRun 单次运行详情（含写入批次）
// GET /api/history/:runId
func (h *Handler) GetRun(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "审计日志未启用"})
		return
	}
	run, err := h.history.GetRun(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
