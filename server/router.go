package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter 注册 WebSocket、房间 API、管理与监控接口；staticDir 为空时不挂载静态资源
func NewRouter(m *RoomManager, codec Codec, staticDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/ws", HandleWS(m, codec))

	router.POST("/rooms", HandleCreateRoom(m))
	router.GET("/rooms", HandleListRooms(m))
	router.GET("/rooms/:id", HandleGetRoom(m))
	router.POST("/rooms/:id/restart", HandleRestartRoom(m))

	router.GET("/admin/config", HandleAdminConfig(m))
	router.POST("/admin/config", HandleAdminConfig(m))
	router.GET("/metrics", HandleMetrics(m))
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// 前后端分离：未命中的路径交给 web 目录的静态资源
	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		router.NoRoute(gin.WrapH(fs))
	}
	return router
}

// requestLogger 将访问日志写入 zap
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		Log.Debugw("http", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
	}
}
