package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/pulltab-game/internal/game/pulltab"
	"github.com/wfunc/pulltab-game/internal/models"
	"gorm.io/gorm"
)

// TicketRepositoryTestSuite 彩票仓储测试套件
type TicketRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repo    TicketRepository
	boxRepo GameBoxRepository
	box     *models.GameBox
}

func (suite *TicketRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewTicketRepository(suite.db)
	suite.boxRepo = NewGameBoxRepository(suite.db)

	suite.box = models.NewGameBox()
	if err := suite.boxRepo.Create(context.Background(), suite.box); err != nil {
		panic(err)
	}
}

func (suite *TicketRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// createTicket 创建测试彩票
func (suite *TicketRepositoryTestSuite) createTicket(userID uint, isWinner bool, payout int64) *models.Ticket {
	ticket := &models.Ticket{
		TicketNo: uuid.New().String(),
		UserID:   userID,
		BoxID:    suite.box.ID,
		Symbols: models.SymbolList{
			pulltab.SymbolMap, pulltab.SymbolCompass, pulltab.SymbolAnchor,
			pulltab.SymbolShip, pulltab.SymbolMap, pulltab.SymbolCompass,
			pulltab.SymbolAnchor, pulltab.SymbolShip, pulltab.SymbolMap,
			pulltab.SymbolCompass, pulltab.SymbolAnchor, pulltab.SymbolShip,
			pulltab.SymbolMap, pulltab.SymbolCompass, pulltab.SymbolAnchor,
		},
		IsWinner:     isWinner,
		TotalPayout:  payout,
		RevealedTabs: models.TabList{},
	}
	err := suite.repo.Create(context.Background(), ticket)
	assert.NoError(suite.T(), err)
	return ticket
}

// TestTicketRepository_Create 测试创建彩票
func (suite *TicketRepositoryTestSuite) TestTicketRepository_Create() {
	ctx := context.Background()

	ticket := suite.createTicket(1, false, 0)
	assert.NotZero(suite.T(), ticket.ID)

	found, err := suite.repo.FindByID(ctx, ticket.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), ticket.TicketNo, found.TicketNo)
	assert.Len(suite.T(), found.Symbols, 15)
	assert.Empty(suite.T(), found.RevealedTabs)
}

// TestTicketRepository_TicketNoUnique 测试票号唯一约束
func (suite *TicketRepositoryTestSuite) TestTicketRepository_TicketNoUnique() {
	ctx := context.Background()

	first := suite.createTicket(1, false, 0)

	dup := &models.Ticket{
		TicketNo: first.TicketNo,
		UserID:   2,
		BoxID:    suite.box.ID,
		Symbols:  first.Symbols,
	}
	err := suite.repo.Create(ctx, dup)
	assert.Error(suite.T(), err)
}

// TestTicketRepository_FindByIDAndUser 测试归属校验
func (suite *TicketRepositoryTestSuite) TestTicketRepository_FindByIDAndUser() {
	ctx := context.Background()

	ticket := suite.createTicket(1, false, 0)

	// 本人可以查到
	found, err := suite.repo.FindByIDAndUser(ctx, ticket.ID, 1)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), ticket.ID, found.ID)

	// 他人与不存在返回同一错误
	_, err = suite.repo.FindByIDAndUser(ctx, ticket.ID, 2)
	assert.ErrorIs(suite.T(), err, ErrTicketNotFound)

	_, err = suite.repo.FindByIDAndUser(ctx, 99999, 1)
	assert.ErrorIs(suite.T(), err, ErrTicketNotFound)
}

// TestTicketRepository_Update 测试刮开进度持久化
func (suite *TicketRepositoryTestSuite) TestTicketRepository_Update() {
	ctx := context.Background()

	ticket := suite.createTicket(1, false, 0)

	assert.True(suite.T(), ticket.RevealTab(0))
	assert.True(suite.T(), ticket.RevealTab(3))
	assert.False(suite.T(), ticket.RevealTab(0)) // 重复刮开不变化
	assert.NoError(suite.T(), suite.repo.Update(ctx, ticket))

	found, err := suite.repo.FindByID(ctx, ticket.ID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), found.RevealedTabs, 2)
	assert.True(suite.T(), found.RevealedTabs.Contains(0))
	assert.True(suite.T(), found.RevealedTabs.Contains(3))
}

// TestTicketRepository_FindByUser 测试分页查询购票历史
func (suite *TicketRepositoryTestSuite) TestTicketRepository_FindByUser() {
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		suite.createTicket(1, false, 0)
	}
	// 其他用户的票不应出现在结果中
	suite.createTicket(2, false, 0)

	pagination := NewPagination(1, 5)
	tickets, err := suite.repo.FindByUser(ctx, 1, pagination)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), tickets, 5)
	assert.Equal(suite.T(), int64(7), pagination.Total)

	pagination = NewPagination(2, 5)
	tickets, err = suite.repo.FindByUser(ctx, 1, pagination)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), tickets, 2)

	for _, ticket := range tickets {
		assert.Equal(suite.T(), uint(1), ticket.UserID)
	}
}

// TestTicketRepository_CountByBox 测试箱内计数
func (suite *TicketRepositoryTestSuite) TestTicketRepository_CountByBox() {
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		suite.createTicket(uint(i+1), i%2 == 0, int64(i))
	}

	count, err := suite.repo.CountByBox(ctx, suite.box.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), count)

	winners, err := suite.repo.CountWinnersByBox(ctx, suite.box.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), winners)
}

// TestTicketRepository_WithTx 测试事务内回滚
func (suite *TicketRepositoryTestSuite) TestTicketRepository_WithTx() {
	ctx := context.Background()

	err := suite.db.Transaction(func(tx *gorm.DB) error {
		txRepo := suite.repo.WithTx(tx).(TicketRepository)
		ticket := &models.Ticket{
			TicketNo: uuid.New().String(),
			UserID:   1,
			BoxID:    suite.box.ID,
			Symbols:  models.SymbolList{pulltab.SymbolMap},
		}
		if err := txRepo.Create(ctx, ticket); err != nil {
			return err
		}
		return fmt.Errorf("强制回滚")
	})
	assert.Error(suite.T(), err)

	count, err := suite.repo.CountByBox(ctx, suite.box.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), count)
}

func TestTicketRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TicketRepositoryTestSuite))
}
