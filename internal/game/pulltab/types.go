package pulltab

import (
	cryptorand "crypto/rand"
	"math/big"
	mathrand "math/rand"
)

// Symbol 游戏符号
type Symbol string

const (
	SymbolSkull    Symbol = "SKULL"    // 骷髅（百搭对子符号）
	SymbolTreasure Symbol = "TREASURE" // 宝藏
	SymbolShip     Symbol = "SHIP"     // 海盗船
	SymbolAnchor   Symbol = "ANCHOR"   // 船锚
	SymbolCompass  Symbol = "COMPASS"  // 罗盘
	SymbolMap      Symbol = "MAP"      // 藏宝图
)

// 网格尺寸常量
const (
	LineCount = 5                    // 每张票的连线数
	LineSize  = 3                    // 每条线的符号数
	GridSize  = LineCount * LineSize // 符号总数
)

// TotalTicketSlots 每箱票数
const TotalTicketSlots = 500

// TotalWinners 每箱中奖票总数
const TotalWinners = 125

// PrizeTier 奖级（货币单位）
type PrizeTier int

const (
	Prize100 PrizeTier = 100
	Prize20  PrizeTier = 20
	Prize10  PrizeTier = 10
	Prize5   PrizeTier = 5
	Prize2   PrizeTier = 2
	Prize1   PrizeTier = 1
)

// AllTiers 全部奖级（从高到低）
var AllTiers = []PrizeTier{Prize100, Prize20, Prize10, Prize5, Prize2, Prize1}

// tierSymbols 奖级到第三个符号的固定映射
var tierSymbols = map[PrizeTier]Symbol{
	Prize100: SymbolSkull,
	Prize20:  SymbolTreasure,
	Prize10:  SymbolShip,
	Prize5:   SymbolAnchor,
	Prize2:   SymbolCompass,
	Prize1:   SymbolMap,
}

// symbolPrizes 第三个符号到奖金的反向映射
var symbolPrizes = map[Symbol]PrizeTier{
	SymbolSkull:    Prize100,
	SymbolTreasure: Prize20,
	SymbolShip:     Prize10,
	SymbolAnchor:   Prize5,
	SymbolCompass:  Prize2,
	SymbolMap:      Prize1,
}

// allSymbols 随机填充用的完整符号集
var allSymbols = []Symbol{
	SymbolSkull, SymbolTreasure, SymbolShip,
	SymbolAnchor, SymbolCompass, SymbolMap,
}

// nonSkullSymbols 排除骷髅的符号集（防止意外连线）
var nonSkullSymbols = []Symbol{
	SymbolTreasure, SymbolShip,
	SymbolAnchor, SymbolCompass, SymbolMap,
}

// SymbolForTier 返回奖级对应的第三个符号
func SymbolForTier(tier PrizeTier) Symbol {
	return tierSymbols[tier]
}

// PrizeForSymbol 返回符号作为第三格时对应的奖金
func PrizeForSymbol(s Symbol) (PrizeTier, bool) {
	tier, ok := symbolPrizes[s]
	return tier, ok
}

// InitialWinnerCounts 每箱初始中奖分布
// 共125个中奖位，500张票，中奖率25%，返奖率75%
func InitialWinnerCounts() map[PrizeTier]int {
	return map[PrizeTier]int{
		Prize100: 1,
		Prize20:  2,
		Prize10:  5,
		Prize5:   5,
		Prize2:   48,
		Prize1:   64,
	}
}

// Grid 一张票的符号网格（15个符号，按5条线分组）
type Grid [GridSize]Symbol

// Line 返回第index条线的3个符号（index为0-4）
func (g Grid) Line(index int) [LineSize]Symbol {
	base := index * LineSize
	return [LineSize]Symbol{g[base], g[base+1], g[base+2]}
}

// WinningLine 中奖线
type WinningLine struct {
	Line    int             `json:"line"`    // 线号（1-5）
	Symbols [LineSize]Symbol `json:"symbols"` // 线上符号
	Prize   PrizeTier       `json:"prize"`   // 奖金
}

// BoxState 奖箱状态快照（分配决策的纯值输入）
type BoxState struct {
	RemainingTickets int
	Winners          map[PrizeTier]int
}

// TotalWinnersRemaining 剩余中奖位总数
func (s BoxState) TotalWinnersRemaining() int {
	total := 0
	for _, count := range s.Winners {
		total += count
	}
	return total
}

// RandomGenerator 随机数生成器接口
type RandomGenerator interface {
	// Next 生成下一个随机数 (0-1)
	Next() float64

	// NextInt 生成指定范围内的随机整数 [min, max)
	NextInt(min, max int) int
}

// CryptoRandomGenerator 加密安全的随机数生成器
type CryptoRandomGenerator struct{}

// NewCryptoRandomGenerator 创建加密随机数生成器
func NewCryptoRandomGenerator() *CryptoRandomGenerator {
	return &CryptoRandomGenerator{}
}

// Next 生成下一个随机数 (0-1)
func (g *CryptoRandomGenerator) Next() float64 {
	max := big.NewInt(1000000)
	n, _ := cryptorand.Int(cryptorand.Reader, max)
	return float64(n.Int64()) / 1000000.0
}

// NextInt 生成指定范围内的随机整数
func (g *CryptoRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	diff := big.NewInt(int64(max - min))
	n, _ := cryptorand.Int(cryptorand.Reader, diff)
	return min + int(n.Int64())
}

// SeededRandomGenerator 可播种的随机数生成器（测试用）
type SeededRandomGenerator struct {
	rng *mathrand.Rand
}

// NewSeededRandomGenerator 创建可播种随机数生成器
func NewSeededRandomGenerator(seed int64) *SeededRandomGenerator {
	return &SeededRandomGenerator{
		rng: mathrand.New(mathrand.NewSource(seed)),
	}
}

// Next 生成下一个随机数 (0-1)
func (g *SeededRandomGenerator) Next() float64 {
	return g.rng.Float64()
}

// NextInt 生成指定范围内的随机整数
func (g *SeededRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	return min + g.rng.Intn(max-min)
}
