package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/pulltab-game/internal/middleware"
	"github.com/wfunc/pulltab-game/internal/service"
	ws "github.com/wfunc/pulltab-game/internal/websocket"
	"go.uber.org/zap"
)

// BoxWebSocketHandler 奖箱WebSocket处理器
// 向所有连接的客户端广播奖箱状态变化。
type BoxWebSocketHandler struct {
	hub           *ws.Hub
	ticketService service.TicketService
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

// NewBoxWebSocketHandler 创建奖箱WebSocket处理器
func NewBoxWebSocketHandler(hub *ws.Hub, ticketService service.TicketService, logger *zap.Logger) *BoxWebSocketHandler {
	return &BoxWebSocketHandler{
		hub:           hub,
		ticketService: ticketService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 在生产环境中应该检查Origin
				return true
			},
		},
		logger: logger,
	}
}

// BoxWebSocket 奖箱状态WebSocket连接
func (h *BoxWebSocketHandler) BoxWebSocket(c *gin.Context) {
	// 获取用户ID（可选，未登录为观战模式）
	userID, _ := middleware.GetUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.Uint("user_id", userID),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", userID))

	// 连接后立即推送当前奖箱状态
	if status, err := h.ticketService.GetBoxStatus(c.Request.Context()); err == nil {
		data, _ := json.Marshal(status)
		h.hub.SendToClient(client.ID, &ws.Message{
			Type:      ws.MessageTypeBoxStatus,
			Data:      data,
			Timestamp: time.Now().Unix(),
		})
	}
}

// NotifyTicketSold 广播售票事件
func (h *BoxWebSocketHandler) NotifyTicketSold(ctx context.Context, result *service.PurchaseResult) {
	payload := map[string]interface{}{
		"box_id":    result.BoxID,
		"remaining": result.Remaining,
	}
	data, _ := json.Marshal(payload)
	h.hub.Broadcast(&ws.Message{
		Type:      ws.MessageTypeTicketSold,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})

	// 换箱播报
	if result.NewBox {
		boxData, _ := json.Marshal(map[string]interface{}{"box_id": result.BoxID})
		h.hub.Broadcast(&ws.Message{
			Type:      ws.MessageTypeBoxOpened,
			Data:      boxData,
			Timestamp: time.Now().Unix(),
		})
	}

	// 高奖级中奖播报（不泄露买家身份）
	if result.Ticket != nil && result.Ticket.TotalPayout >= 20 {
		winData, _ := json.Marshal(map[string]interface{}{
			"box_id": result.BoxID,
			"prize":  result.Ticket.TotalPayout,
		})
		h.hub.Broadcast(&ws.Message{
			Type:      ws.MessageTypeBigWin,
			Data:      winData,
			Timestamp: time.Now().Unix(),
		})
	}
}

// GetOnlineCount 获取在线人数
func (h *BoxWebSocketHandler) GetOnlineCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_count": h.hub.GetOnlineCount(),
	})
}
