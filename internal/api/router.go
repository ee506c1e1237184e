package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/pulltab-game/internal/middleware"
	"github.com/wfunc/pulltab-game/internal/service"
	ws "github.com/wfunc/pulltab-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	authHandler    *AuthHandler
	ticketHandler  *TicketHandler
	wsHandler      *BoxWebSocketHandler
	hub            *ws.Hub
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, config *service.Config, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// 创建服务
	services := service.NewServices(db, config, log)

	// WebSocket Hub
	hub := ws.NewHub(log)
	go hub.Run()

	// 创建处理器
	authHandler := NewAuthHandler(services.Auth)
	wsHandler := NewBoxWebSocketHandler(hub, services.Ticket, log)
	ticketHandler := NewTicketHandler(services.Ticket, wsHandler, log)

	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(services.Auth)

	router := &Router{
		engine:         engine,
		db:             db,
		services:       services,
		authHandler:    authHandler,
		ticketHandler:  ticketHandler,
		wsHandler:      wsHandler,
		hub:            hub,
		authMiddleware: authMiddleware,
		log:            log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			// 需要认证的路由
			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.POST("/logout", r.authHandler.Logout)
			}
		}

		// 奖箱状态（公开，供大厅展示）
		box := v1.Group("/box")
		{
			box.GET("/status", r.ticketHandler.BoxStatus)
			box.GET("/online", r.wsHandler.GetOnlineCount)
		}

		// 彩票相关路由（需要认证）
		tickets := v1.Group("/tickets")
		tickets.Use(r.authMiddleware.RequireAuth())
		{
			tickets.POST("", r.ticketHandler.Purchase)
			tickets.GET("", r.ticketHandler.ListTickets)
			tickets.GET("/:id", r.ticketHandler.GetTicket)
			tickets.POST("/:id/tabs/:tab", r.ticketHandler.Reveal)
		}

		// 玩家统计（需要认证）
		stats := v1.Group("/stats")
		stats.Use(r.authMiddleware.RequireAuth())
		{
			stats.GET("/me", r.ticketHandler.MyStats)
		}
	}

	// WebSocket路由（未登录可观战）
	wsGroup := r.engine.Group("/ws")
	wsGroup.Use(r.authMiddleware.OptionalAuth())
	{
		wsGroup.GET("/box", r.wsHandler.BoxWebSocket)
	}

	// 静态文件服务
	r.engine.Static("/static", "./static")

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
