package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paradestate/internal/api/v1"
	"paradestate/internal/config"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	http   *http.Server
	v1     *v1.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, handler *v1.Handler) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.Default(),
		v1:     handler,
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 底层 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.router}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收新请求并等待处理中的请求结束
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
