package pulltab

// 符号网格编解码器。
// 编码器把目标奖级转换成15个符号；解码器把任意网格还原为中奖线列表。
// 核心不变量：为奖级T生成的网格解码后恰好产生一条奖金为T的中奖线，
// 填充符号绝不允许意外凑出第二条骷髅对。

// Codec 符号网格编解码器
type Codec struct {
	random RandomGenerator
}

// NewCodec 创建编解码器
func NewCodec(random RandomGenerator) *Codec {
	if random == nil {
		random = NewCryptoRandomGenerator()
	}
	return &Codec{random: random}
}

// EncodeWinningGrid 生成恰好实现指定奖级的网格
func (c *Codec) EncodeWinningGrid(tier PrizeTier) Grid {
	var grid Grid

	// 随机选择承载中奖的线
	winLine := c.random.NextInt(0, LineCount)
	base := winLine * LineSize
	grid[base] = SymbolSkull
	grid[base+1] = SymbolSkull
	grid[base+2] = SymbolForTier(tier)

	// 填充其余位置，禁止其他线出现骷髅对
	for line := 0; line < LineCount; line++ {
		if line == winLine {
			continue
		}
		c.fillLosingLine(&grid, line)
	}

	return grid
}

// EncodeLosingGrid 生成不含任何中奖线的网格
func (c *Codec) EncodeLosingGrid() Grid {
	var grid Grid
	for line := 0; line < LineCount; line++ {
		c.fillLosingLine(&grid, line)
	}
	return grid
}

// fillLosingLine 随机填充一条线，保证不会形成骷髅对
// 第一格可以是任意符号；第一格为骷髅时第二格从非骷髅集中抽取。
// 第三格始终自由填充：前两格没有骷髅对时第三格无法触发中奖。
func (c *Codec) fillLosingLine(grid *Grid, line int) {
	base := line * LineSize
	grid[base] = c.randomSymbol()
	if grid[base] == SymbolSkull {
		grid[base+1] = c.randomNonSkullSymbol()
	} else {
		grid[base+1] = c.randomSymbol()
	}
	grid[base+2] = c.randomSymbol()
}

// randomSymbol 从完整符号集中随机抽取
func (c *Codec) randomSymbol() Symbol {
	return allSymbols[c.random.NextInt(0, len(allSymbols))]
}

// randomNonSkullSymbol 从非骷髅符号集中随机抽取
func (c *Codec) randomNonSkullSymbol() Symbol {
	return nonSkullSymbols[c.random.NextInt(0, len(nonSkullSymbols))]
}

// DecodeWinningLines 解码网格，返回所有中奖线
// 每条线独立判定：前两格均为骷髅时由第三格决定奖金。多条中奖线可叠加。
func DecodeWinningLines(grid Grid) []WinningLine {
	var lines []WinningLine
	for i := 0; i < LineCount; i++ {
		symbols := grid.Line(i)
		if symbols[0] != SymbolSkull || symbols[1] != SymbolSkull {
			continue
		}
		prize, ok := PrizeForSymbol(symbols[2])
		if !ok {
			continue
		}
		lines = append(lines, WinningLine{
			Line:    i + 1,
			Symbols: symbols,
			Prize:   prize,
		})
	}
	return lines
}

// CalculatePayout 计算总奖金（多条中奖线叠加，无上限）
func CalculatePayout(lines []WinningLine) int {
	total := 0
	for _, line := range lines {
		total += int(line.Prize)
	}
	return total
}

// IsWinningLine 判断单条线是否中奖
func IsWinningLine(symbols [LineSize]Symbol) bool {
	if symbols[0] != SymbolSkull || symbols[1] != SymbolSkull {
		return false
	}
	_, ok := PrizeForSymbol(symbols[2])
	return ok
}
