package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/pulltab-game/internal/errors"
	"github.com/wfunc/pulltab-game/internal/game/pulltab"
	"github.com/wfunc/pulltab-game/internal/models"
	"github.com/wfunc/pulltab-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TicketServiceTestSuite 彩票服务测试套件
type TicketServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	ctx     context.Context
	service TicketService
}

func (s *TicketServiceTestSuite) SetupTest() {
	s.db = repository.SetupTestDB()
	s.ctx = context.Background()

	boxRepo := repository.NewGameBoxRepository(s.db)
	ticketRepo := repository.NewTicketRepository(s.db)
	statsRepo := repository.NewPlayerStatsRepository(s.db)

	s.service = NewTicketService(
		s.db,
		boxRepo,
		ticketRepo,
		statsRepo,
		pulltab.NewSeededRandomGenerator(20240817),
		3,
		zap.NewNop(),
	)
}

func (s *TicketServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(s.db)
}

// TestPurchaseTicket 测试基础购票流程
func (s *TicketServiceTestSuite) TestPurchaseTicket() {
	result, err := s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(result)

	// 首次购票应自动开箱
	s.True(result.NewBox)
	s.Equal(pulltab.TotalTicketSlots-1, result.Remaining)

	ticket := result.Ticket
	s.NotEmpty(ticket.TicketNo)
	s.Equal(uint(1), ticket.UserID)
	s.Len(ticket.Symbols, pulltab.GridSize)
	s.Empty(ticket.RevealedTabs)

	// 中奖票必须有中奖线，未中奖票不能有
	if ticket.IsWinner {
		s.NotEmpty(ticket.WinningLines)
		s.Greater(ticket.TotalPayout, int64(0))
	} else {
		s.Empty(ticket.WinningLines)
		s.Equal(int64(0), ticket.TotalPayout)
	}
}

// TestBoxExhaustion 测试整箱售罄：奖金结构必须精确兑现
func (s *TicketServiceTestSuite) TestBoxExhaustion() {
	var (
		winners     int
		totalPayout int64
		tierCounts  = make(map[int64]int)
	)

	firstBoxID := uint(0)
	for i := 0; i < pulltab.TotalTicketSlots; i++ {
		result, err := s.service.PurchaseTicket(s.ctx, 1)
		s.Require().NoError(err, "第%d张购票失败", i+1)

		if firstBoxID == 0 {
			firstBoxID = result.BoxID
		}
		s.Equal(firstBoxID, result.BoxID, "整箱售罄前不应换箱")

		if result.Ticket.IsWinner {
			winners++
			totalPayout += result.Ticket.TotalPayout
			tierCounts[result.Ticket.TotalPayout]++
		}
	}

	// 500张票中恰好125张中奖
	s.Equal(pulltab.TotalWinners, winners)

	// 各奖级数量精确兑现
	expected := pulltab.InitialWinnerCounts()
	for tier, count := range expected {
		s.Equal(count, tierCounts[int64(tier)], "奖级%d数量不符", tier)
	}

	// 总奖金 = 各奖级之和
	var expectedPayout int64
	for tier, count := range expected {
		expectedPayout += int64(tier) * int64(count)
	}
	s.Equal(expectedPayout, totalPayout)

	// 售罄后没有活跃奖箱，状态接口报告上一箱的终态
	status, err := s.service.GetBoxStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(firstBoxID, status.BoxID)
	s.Equal(0, status.RemainingTickets)
	s.Equal(pulltab.TotalTicketSlots, status.SoldTickets)
	s.InDelta(100.0, status.PercentSold, 1e-9)
	s.Equal(0, status.WinnersRemaining)
	s.True(status.IsComplete)

	// 第501张票应落入新箱
	result, err := s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)
	s.True(result.NewBox)
	s.NotEqual(firstBoxID, result.BoxID)
	s.Equal(pulltab.TotalTicketSlots-1, result.Remaining)
}

// TestRevealTab 测试刮开流程
func (s *TicketServiceTestSuite) TestRevealTab() {
	purchase, err := s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)
	ticketID := purchase.Ticket.ID

	// 逐条刮开：总奖金每次都返回同一个值，与进度无关
	for i := 0; i < pulltab.LineCount; i++ {
		result, err := s.service.RevealTab(s.ctx, 1, ticketID, i)
		s.Require().NoError(err)
		s.Equal(i, result.TabIndex)
		s.Equal(purchase.Ticket.TotalPayout, result.TotalWin)
		s.Equal(i == pulltab.LineCount-1, result.AllOpened)
	}
}

// TestRevealWinnerFirstTab 中奖票刮开第一条线就能看到票面总奖金
func (s *TicketServiceTestSuite) TestRevealWinnerFirstTab() {
	var winner *PurchaseResult
	for i := 0; i < pulltab.TotalTicketSlots; i++ {
		result, err := s.service.PurchaseTicket(s.ctx, 1)
		s.Require().NoError(err)
		if result.Ticket.IsWinner {
			winner = result
			break
		}
	}
	s.Require().NotNil(winner, "整箱内必然出现中奖票")

	line := winner.Ticket.WinningLines[0].Line - 1
	reveal, err := s.service.RevealTab(s.ctx, 1, winner.Ticket.ID, line)
	s.Require().NoError(err)
	s.False(reveal.AllOpened)
	s.True(reveal.IsWin)
	s.Equal(winner.Ticket.TotalPayout, reveal.TotalWin)
}

// TestRevealTabIdempotent 测试重复刮开是空操作
func (s *TicketServiceTestSuite) TestRevealTabIdempotent() {
	purchase, err := s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)
	ticketID := purchase.Ticket.ID

	first, err := s.service.RevealTab(s.ctx, 1, ticketID, 2)
	s.Require().NoError(err)

	second, err := s.service.RevealTab(s.ctx, 1, ticketID, 2)
	s.Require().NoError(err)

	// 两次结果一致，且进度不重复累计
	s.Equal(first.Symbols, second.Symbols)
	s.Equal(first.Prize, second.Prize)

	ticket, err := s.service.GetTicket(s.ctx, 1, ticketID)
	s.Require().NoError(err)
	s.Len(ticket.RevealedTabs, 1)
}

// TestRevealTabInvalidIndex 测试非法刮开位置
func (s *TicketServiceTestSuite) TestRevealTabInvalidIndex() {
	purchase, err := s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)

	for _, index := range []int{-1, pulltab.LineCount, 100} {
		_, err := s.service.RevealTab(s.ctx, 1, purchase.Ticket.ID, index)
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.ErrInvalidTabIndex))
	}
}

// TestOwnershipIsolation 测试用户只能操作自己的彩票
func (s *TicketServiceTestSuite) TestOwnershipIsolation() {
	purchase, err := s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)

	// 其他用户查询/刮开应表现为"不存在"
	_, err = s.service.GetTicket(s.ctx, 2, purchase.Ticket.ID)
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.ErrTicketNotFound))

	_, err = s.service.RevealTab(s.ctx, 2, purchase.Ticket.ID, 0)
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.ErrTicketNotFound))
}

// TestGetUserTickets 测试购票历史分页
func (s *TicketServiceTestSuite) TestGetUserTickets() {
	for i := 0; i < 5; i++ {
		_, err := s.service.PurchaseTicket(s.ctx, 1)
		s.Require().NoError(err)
	}
	_, err := s.service.PurchaseTicket(s.ctx, 2)
	s.Require().NoError(err)

	tickets, total, err := s.service.GetUserTickets(s.ctx, 1, 1, 3)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(tickets, 3)

	// 第二页
	tickets, total, err = s.service.GetUserTickets(s.ctx, 1, 2, 3)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(tickets, 2)
}

// TestGetBoxStatus 测试奖箱状态查询
func (s *TicketServiceTestSuite) TestGetBoxStatus() {
	// 状态查询是纯只读：没有奖箱时报错，绝不在读路径上开箱
	_, err := s.service.GetBoxStatus(s.ctx)
	s.Require().Error(err)

	var count int64
	s.db.Model(&models.GameBox{}).Count(&count)
	s.Equal(int64(0), count)

	// 购票开箱后状态可查，派生字段随售出同步
	_, err = s.service.PurchaseTicket(s.ctx, 1)
	s.Require().NoError(err)

	status, err := s.service.GetBoxStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(pulltab.TotalTicketSlots, status.TotalTickets)
	s.Equal(pulltab.TotalTicketSlots-1, status.RemainingTickets)
	s.Equal(1, status.SoldTickets)
	s.InDelta(100.0/float64(pulltab.TotalTicketSlots), status.PercentSold, 1e-9)
	s.False(status.IsComplete)
	s.NotEmpty(status.TierCounts)
}

// TestPlayerStats 测试玩家统计累计
func (s *TicketServiceTestSuite) TestPlayerStats() {
	var totalWin int64
	for i := 0; i < 10; i++ {
		result, err := s.service.PurchaseTicket(s.ctx, 1)
		s.Require().NoError(err)
		totalWin += result.Ticket.TotalPayout
	}

	stats, err := s.service.GetPlayerStats(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(int64(10), stats.TicketsPlayed)
	s.Equal(totalWin, stats.TotalWinnings)
}

func TestTicketServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceTestSuite))
}
