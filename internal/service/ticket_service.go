package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/pulltab-game/internal/errors"
	"github.com/wfunc/pulltab-game/internal/game/pulltab"
	"github.com/wfunc/pulltab-game/internal/models"
	"github.com/wfunc/pulltab-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultPurchaseRetries 事务冲突时的默认重试次数
const defaultPurchaseRetries = 3

// ticketService 彩票服务实现
type ticketService struct {
	db        *gorm.DB
	txManager repository.TransactionManager
	boxRepo   repository.GameBoxRepository
	ticketRepo repository.TicketRepository
	statsRepo repository.PlayerStatsRepository
	allocator *pulltab.Allocator
	codec     *pulltab.Codec
	retries   int
	log       *zap.Logger
}

// NewTicketService 创建彩票服务
func NewTicketService(
	db *gorm.DB,
	boxRepo repository.GameBoxRepository,
	ticketRepo repository.TicketRepository,
	statsRepo repository.PlayerStatsRepository,
	random pulltab.RandomGenerator,
	retries int,
	log *zap.Logger,
) TicketService {
	if retries <= 0 {
		retries = defaultPurchaseRetries
	}
	return &ticketService{
		db:         db,
		txManager:  repository.NewTransactionManager(db),
		boxRepo:    boxRepo,
		ticketRepo: ticketRepo,
		statsRepo:  statsRepo,
		allocator:  pulltab.NewAllocator(random),
		codec:      pulltab.NewCodec(random),
		retries:    retries,
		log:        log,
	}
}

// PurchaseTicket 购买一张彩票
// 整个流程在单个事务内完成：锁定奖箱行、决定输赢、生成网格、
// 扣减库存、落库。事务冲突时按配置次数重试。
func (s *ticketService) PurchaseTicket(ctx context.Context, userID uint) (*PurchaseResult, error) {
	var result *PurchaseResult
	var lastErr error

	for attempt := 0; attempt < s.retries; attempt++ {
		result, lastErr = s.purchaseOnce(ctx, userID)
		if lastErr == nil {
			return result, nil
		}
		if !repository.IsRetryableError(lastErr) && !apperrors.IsRetryable(lastErr) {
			return nil, lastErr
		}
		s.log.Warn("购票事务冲突，准备重试",
			zap.Uint("user_id", userID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	return nil, apperrors.Wrap(lastErr, apperrors.ErrTransaction, "购票重试次数耗尽")
}

// purchaseOnce 单次购票事务
func (s *ticketService) purchaseOnce(ctx context.Context, userID uint) (*PurchaseResult, error) {
	var result *PurchaseResult

	err := s.txManager.WithTransaction(ctx, func(tx *repository.Transaction) error {
		// 行级锁定当前活跃奖箱
		box, err := tx.GameBox().LockActiveForUpdate(ctx)
		newBox := false
		if err != nil {
			if err != repository.ErrBoxNotFound {
				return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
			}
			// 没有活跃奖箱则开启新箱
			box = models.NewGameBox()
			if err := tx.GameBox().Create(ctx, box); err != nil {
				return apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建新奖箱失败")
			}
			newBox = true
			s.log.Info("开启新奖箱",
				zap.Uint("box_id", box.ID),
				zap.Int("total_tickets", box.TotalTickets),
			)
		}

		// 依据当前库存决定输赢
		state := box.Snapshot()
		var (
			grid   pulltab.Grid
			lines  []pulltab.WinningLine
			payout int
		)

		if s.allocator.ShouldGenerateWinner(state) {
			tier, ok := s.allocator.SelectPrizeLevel(state)
			if !ok {
				return apperrors.New(apperrors.ErrPrizePoolDrained)
			}
			grid = s.codec.EncodeWinningGrid(tier)
			lines = pulltab.DecodeWinningLines(grid)
			payout = pulltab.CalculatePayout(lines)

			// 解码确认：生成的网格必须恰好兑现目标奖级。
			// 不一致说明编码器有缺陷；以解码结果为准兑付（玩家看到什么就赔什么），
			// 同时大声记录，便于立即排查。
			if payout != int(tier) {
				mismatch := apperrors.Newf(apperrors.ErrPayoutMismatch,
					"target=%d decoded=%d", tier, payout)
				s.log.Error("中奖网格解码结果与目标奖级不符",
					zap.Uint("box_id", box.ID),
					zap.Int("target", int(tier)),
					zap.Int("decoded", payout),
					zap.Error(mismatch),
				)
			}
			box.ConsumePrize(tier)
		} else {
			grid = s.codec.EncodeLosingGrid()
			lines = pulltab.DecodeWinningLines(grid)
			if len(lines) != 0 {
				return apperrors.Newf(apperrors.ErrPayoutMismatch,
					"losing grid decoded %d winning lines", len(lines))
			}
		}

		// 扣减票位
		if err := box.ConsumeTicketSlot(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrNoInventory)
		}
		if err := tx.GameBox().Update(ctx, box); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新奖箱失败")
		}

		// 落库彩票
		ticket := &models.Ticket{
			TicketNo:     uuid.New().String(),
			UserID:       userID,
			BoxID:        box.ID,
			Symbols:      models.SymbolList(grid[:]),
			WinningLines: models.WinLineList(lines),
			TotalPayout:  int64(payout),
			IsWinner:     payout > 0,
			RevealedTabs: models.TabList{},
		}
		if err := tx.Ticket().Create(ctx, ticket); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建彩票失败")
		}

		// 更新玩家统计
		stats, err := tx.PlayerStats().GetOrCreate(ctx, userID)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "读取玩家统计失败")
		}
		stats.RecordTicket(int64(payout))
		if err := tx.PlayerStats().Update(ctx, stats); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新玩家统计失败")
		}

		result = &PurchaseResult{
			Ticket:    ticket,
			BoxID:     box.ID,
			Remaining: box.RemainingTickets,
			NewBox:    newBox,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.log.Debug("购票成功",
		zap.Uint("user_id", userID),
		zap.String("ticket_no", result.Ticket.TicketNo),
		zap.Bool("is_winner", result.Ticket.IsWinner),
		zap.Int("remaining", result.Remaining),
	)
	return result, nil
}

// RevealTab 刮开彩票的一条连线
// 刮开是幂等的展示动作，不改变票面奖金。
func (s *ticketService) RevealTab(ctx context.Context, userID, ticketID uint, tabIndex int) (*RevealResult, error) {
	if tabIndex < 0 || tabIndex >= pulltab.LineCount {
		return nil, apperrors.Newf(apperrors.ErrInvalidTabIndex, "index=%d", tabIndex)
	}

	ticket, err := s.ticketRepo.FindByIDAndUser(ctx, ticketID, userID)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return nil, apperrors.New(apperrors.ErrTicketNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	if ticket.RevealTab(tabIndex) {
		if err := s.ticketRepo.Update(ctx, ticket); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "保存刮开进度失败")
		}
	}

	symbols := ticket.TabSymbols(tabIndex)
	prize := 0
	if pulltab.IsWinningLine(symbols) {
		if tier, ok := pulltab.PrizeForSymbol(symbols[2]); ok {
			prize = int(tier)
		}
	}

	// 总奖金购票时一次算定，每次刮开都原样返回
	return &RevealResult{
		TicketID:  ticket.ID,
		TabIndex:  tabIndex,
		Symbols:   symbols,
		IsWin:     prize > 0,
		Prize:     prize,
		AllOpened: len(ticket.RevealedTabs) == pulltab.LineCount,
		TotalWin:  ticket.TotalPayout,
	}, nil
}

// GetTicket 查询单张彩票（仅限所有者）
func (s *ticketService) GetTicket(ctx context.Context, userID, ticketID uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByIDAndUser(ctx, ticketID, userID)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return nil, apperrors.New(apperrors.ErrTicketNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return ticket, nil
}

// GetUserTickets 分页查询用户的购票历史
func (s *ticketService) GetUserTickets(ctx context.Context, userID uint, page, pageSize int) ([]*models.Ticket, int64, error) {
	pagination := repository.NewPagination(page, pageSize)
	tickets, err := s.ticketRepo.FindByUser(ctx, userID, pagination)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return tickets, pagination.Total, nil
}

// GetBoxStatus 查询当前奖箱状态
// 纯只读：没有活跃奖箱时报告最近一箱的终态，开箱只发生在购票事务里。
func (s *ticketService) GetBoxStatus(ctx context.Context) (*BoxStatus, error) {
	box, err := s.boxRepo.FindActive(ctx)
	if err != nil {
		if err != repository.ErrBoxNotFound {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
		}
		box, err = s.boxRepo.FindLatest(ctx)
		if err != nil {
			if err == repository.ErrBoxNotFound {
				return nil, apperrors.New(apperrors.ErrBoxCompleted, "暂无奖箱")
			}
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
		}
	}

	tierCounts := make(map[string]int, len(box.WinnerCounts))
	for tier, count := range box.WinnerCounts {
		tierCounts[strconv.Itoa(int(tier))] = count
	}

	sold := box.TotalTickets - box.RemainingTickets
	return &BoxStatus{
		BoxID:            box.ID,
		TotalTickets:     box.TotalTickets,
		RemainingTickets: box.RemainingTickets,
		SoldTickets:      sold,
		PercentSold:      float64(sold) / float64(box.TotalTickets) * 100,
		WinnersRemaining: box.TotalWinnersRemaining(),
		TierCounts:       tierCounts,
		IsComplete:       !box.IsActive(),
		StartedAt:        box.CreatedAt,
	}, nil
}

// GetPlayerStats 查询玩家统计
func (s *ticketService) GetPlayerStats(ctx context.Context, userID uint) (*models.PlayerStats, error) {
	stats, err := s.statsRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return stats, nil
}
