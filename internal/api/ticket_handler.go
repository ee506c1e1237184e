package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/pulltab-game/internal/errors"
	"github.com/wfunc/pulltab-game/internal/middleware"
	"github.com/wfunc/pulltab-game/internal/service"
	"go.uber.org/zap"
)

// TicketHandler 彩票处理器
type TicketHandler struct {
	ticketService service.TicketService
	wsHandler     *BoxWebSocketHandler
	log           *zap.Logger
}

// NewTicketHandler 创建彩票处理器
func NewTicketHandler(ticketService service.TicketService, wsHandler *BoxWebSocketHandler, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		wsHandler:     wsHandler,
		log:           log,
	}
}

// Purchase 购买彩票
// @Summary 购买一张彩票
// @Description 从当前奖箱购买一张票，票面输赢在购买时即已确定
// @Tags Ticket
// @Security Bearer
// @Produce json
// @Success 200 {object} service.PurchaseResult
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/tickets [post]
func (h *TicketHandler) Purchase(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	result, err := h.ticketService.PurchaseTicket(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "PURCHASE_FAILED")
		return
	}

	// 广播奖箱变化
	if h.wsHandler != nil {
		h.wsHandler.NotifyTicketSold(c.Request.Context(), result)
	}

	c.JSON(http.StatusOK, result)
}

// Reveal 刮开一条连线
// @Summary 刮开彩票的一条连线
// @Description 幂等操作，重复刮开同一条线返回相同结果
// @Tags Ticket
// @Security Bearer
// @Produce json
// @Param id path int true "彩票ID"
// @Param tab path int true "连线序号(0-4)"
// @Success 200 {object} service.RevealResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tickets/{id}/tabs/{tab} [post]
func (h *TicketHandler) Reveal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "无效的彩票ID",
		})
		return
	}

	tabIndex, err := strconv.Atoi(c.Param("tab"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "无效的连线序号",
		})
		return
	}

	result, err := h.ticketService.RevealTab(c.Request.Context(), userID, uint(ticketID), tabIndex)
	if err != nil {
		h.respondError(c, err, "REVEAL_FAILED")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTicket 查询单张彩票
// @Summary 查询彩票详情
// @Tags Ticket
// @Security Bearer
// @Produce json
// @Param id path int true "彩票ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "无效的彩票ID",
		})
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), userID, uint(ticketID))
	if err != nil {
		h.respondError(c, err, "TICKET_NOT_FOUND")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTickets 查询购票历史
// @Summary 分页查询当前用户的购票历史
// @Tags Ticket
// @Security Bearer
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} TicketListResponse
// @Router /api/v1/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	tickets, total, err := h.ticketService.GetUserTickets(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.respondError(c, err, "LIST_FAILED")
		return
	}

	c.JSON(http.StatusOK, TicketListResponse{
		Tickets:  tickets,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// BoxStatus 查询当前奖箱状态
// @Summary 查询当前奖箱剩余票数与奖池
// @Tags Box
// @Produce json
// @Success 200 {object} service.BoxStatus
// @Router /api/v1/box/status [get]
func (h *TicketHandler) BoxStatus(c *gin.Context) {
	status, err := h.ticketService.GetBoxStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "STATUS_FAILED")
		return
	}

	c.JSON(http.StatusOK, status)
}

// MyStats 查询当前用户的游戏统计
// @Summary 查询当前用户的游戏统计
// @Tags Stats
// @Security Bearer
// @Produce json
// @Success 200 {object} models.PlayerStats
// @Router /api/v1/stats/me [get]
func (h *TicketHandler) MyStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	stats, err := h.ticketService.GetPlayerStats(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "STATS_FAILED")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// respondError 按错误码映射HTTP状态
func (h *TicketHandler) respondError(c *gin.Context, err error, fallbackCode string) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := appErr.HTTPStatus()
		if apperrors.IsCritical(err) {
			h.log.Error("请求处理出现严重错误", zap.Error(err))
		}
		c.JSON(status, ErrorResponse{
			Code:    strconv.Itoa(int(appErr.Code)),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    fallbackCode,
		Message: err.Error(),
	})
}

// TicketListResponse 购票历史响应
type TicketListResponse struct {
	Tickets  interface{} `json:"tickets"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
