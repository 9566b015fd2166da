package v1

import (
	"github.com/gin-gonic/gin"

	"paradestate/internal/notify"
	"paradestate/internal/service/parade"
	"paradestate/internal/store"
)

// History 审计查询
type History interface {
	History(kind string, limit int) ([]store.RunLog, error)
	GetRun(runID string) (*store.RunLog, error)
}

// Handler V1 API 处理器
type Handler struct {
	svc     *parade.Service
	history History
	outbox  *notify.MemorySender
}

// NewHandler 创建 V1 API 处理器；history 与 outbox 可为 nil
func NewHandler(svc *parade.Service, history History, outbox *notify.MemorySender) *Handler {
	return &Handler{
		svc:     svc,
		history: history,
		outbox:  outbox,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 消息与确认
	router.POST("/messages", h.PostMessage)
	router.GET("/messages/:chatId", h.ListMessages)
	router.GET("/updates/:chatId", h.GetPending)
	router.POST("/updates/:chatId/confirm", h.Confirm)
	router.POST("/updates/:chatId/cancel", h.Cancel)

	// 过期清理
	router.POST("/sweep", h.Sweep)

	// 审计
	router.GET("/history", h.ListHistory)
	router.GET("/history/:runId", h.GetRun)
}
