package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type postMessageRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// PostMessage 接收一条状态消息，暂存并返回确认摘要
// POST /api/messages
func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId 不能为空"})
		return
	}
	reply, err := h.svc.HandleMessage(c.Request.Context(), req.ChatID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// ListMessages 查看发往某会话的消息（仅内存发送器可用）
// GET /api/messages/:chatId
func (h *Handler) ListMessages(c *gin.Context) {
	if h.outbox == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "消息记录未启用"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.outbox.Messages(c.Param("chatId"))})
}

// GetPending 查看会话的暂存更新
// GET /api/updates/:chatId
func (h *Handler) GetPending(c *gin.Context) {
	entry, ok := h.svc.Pending(c.Param("chatId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "没有待确认的更新"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     entry.Token,
		"chatId":    entry.ChatID,
		"createdAt": entry.CreatedAt,
		"summary":   entry.Extraction.Summary(),
		"update":    entry.Extraction.Update,
	})
}

type confirmRequest struct {
	Token string `json:"token"`
}

// Confirm 确认暂存更新并写入名册
// POST /api/updates/:chatId/confirm
func (h *Handler) Confirm(c *gin.Context) {
	var req confirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
			return
		}
	}
	reply, err := h.svc.Confirm(c.Request.Context(), c.Param("chatId"), req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Cancel 取消暂存更新
// POST /api/updates/:chatId/cancel
func (h *Handler) Cancel(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cancel(c.Request.Context(), c.Param("chatId")))
}
