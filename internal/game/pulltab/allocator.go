package pulltab

// 中奖分配器。
// 基于"不放回抽取"的概率模型：把剩余票位看作一个罐子，
// 其中含有 totalWinnersRemaining 个中奖签。每次购票以
// totalWinnersRemaining/remainingTickets 的概率判定中奖，
// 剩余票数不多于剩余中奖位时强制中奖，保证票卖完时奖池恰好清零。

// Allocator 中奖分配器
type Allocator struct {
	random RandomGenerator
}

// NewAllocator 创建分配器
func NewAllocator(random RandomGenerator) *Allocator {
	if random == nil {
		random = NewCryptoRandomGenerator()
	}
	return &Allocator{random: random}
}

// ShouldGenerateWinner 判定下一张票是否中奖
func (a *Allocator) ShouldGenerateWinner(state BoxState) bool {
	totalWinners := state.TotalWinnersRemaining()
	if totalWinners <= 0 {
		return false
	}

	// 强制中奖：剩余票数不足以再推迟发奖
	if state.RemainingTickets <= totalWinners {
		return true
	}

	probability := float64(totalWinners) / float64(state.RemainingTickets)
	return a.random.Next() < probability
}

// SelectPrizeLevel 从剩余奖池中均匀抽取一个奖级
// 按剩余数量展平成多重集后等概率抽取；奖池已空时返回false。
func (a *Allocator) SelectPrizeLevel(state BoxState) (PrizeTier, bool) {
	totalWinners := state.TotalWinnersRemaining()
	if totalWinners <= 0 {
		return 0, false
	}

	draw := a.random.NextInt(0, totalWinners)
	for _, tier := range AllTiers {
		count := state.Winners[tier]
		if count <= 0 {
			continue
		}
		if draw < count {
			return tier, true
		}
		draw -= count
	}

	// 计数一致时不可达
	return 0, false
}
