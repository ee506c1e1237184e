package pulltab

import (
	"testing"
)

func TestEncodeWinningGrid(t *testing.T) {
	codec := NewCodec(NewSeededRandomGenerator(42))

	// 每个奖级大量生成，验证恰好产生一条目标奖级的中奖线
	for _, tier := range AllTiers {
		for i := 0; i < 500; i++ {
			grid := codec.EncodeWinningGrid(tier)

			lines := DecodeWinningLines(grid)
			if len(lines) != 1 {
				t.Fatalf("EncodeWinningGrid(%d) 产生了%d条中奖线, 期望1条, grid=%v", tier, len(lines), grid)
			}
			if lines[0].Prize != tier {
				t.Fatalf("EncodeWinningGrid(%d) 实际奖金=%d", tier, lines[0].Prize)
			}
			if payout := CalculatePayout(lines); payout != int(tier) {
				t.Fatalf("总奖金=%d, 期望%d", payout, tier)
			}
		}
	}
}

func TestEncodeWinningGrid_LinePattern(t *testing.T) {
	codec := NewCodec(NewSeededRandomGenerator(7))

	grid := codec.EncodeWinningGrid(Prize10)
	lines := DecodeWinningLines(grid)
	if len(lines) != 1 {
		t.Fatalf("期望1条中奖线, 实际%d条", len(lines))
	}

	// 中奖线前两格必须是骷髅，第三格对应奖级符号
	win := lines[0]
	if win.Symbols[0] != SymbolSkull || win.Symbols[1] != SymbolSkull {
		t.Errorf("中奖线前两格 = %v, %v, 期望骷髅对", win.Symbols[0], win.Symbols[1])
	}
	if win.Symbols[2] != SymbolShip {
		t.Errorf("第三格 = %v, 期望 %v", win.Symbols[2], SymbolShip)
	}
	if win.Line < 1 || win.Line > LineCount {
		t.Errorf("线号 = %d, 超出范围 1-%d", win.Line, LineCount)
	}
}

func TestEncodeLosingGrid(t *testing.T) {
	codec := NewCodec(NewSeededRandomGenerator(99))

	for i := 0; i < 5000; i++ {
		grid := codec.EncodeLosingGrid()
		if lines := DecodeWinningLines(grid); len(lines) != 0 {
			t.Fatalf("EncodeLosingGrid() 产生中奖线: %+v, grid=%v", lines, grid)
		}
	}
}

func TestDecodeWinningLines(t *testing.T) {
	tests := []struct {
		name       string
		grid       Grid
		wantLines  int
		wantPayout int
	}{
		{
			name: "单条100奖线",
			grid: Grid{
				SymbolSkull, SymbolSkull, SymbolSkull,
				SymbolMap, SymbolShip, SymbolAnchor,
				SymbolCompass, SymbolMap, SymbolShip,
				SymbolTreasure, SymbolAnchor, SymbolMap,
				SymbolShip, SymbolCompass, SymbolTreasure,
			},
			wantLines:  1,
			wantPayout: 100,
		},
		{
			name: "两条奖线叠加 20+10",
			grid: Grid{
				SymbolSkull, SymbolSkull, SymbolTreasure,
				SymbolMap, SymbolShip, SymbolAnchor,
				SymbolSkull, SymbolSkull, SymbolShip,
				SymbolTreasure, SymbolAnchor, SymbolMap,
				SymbolShip, SymbolCompass, SymbolTreasure,
			},
			wantLines:  2,
			wantPayout: 30,
		},
		{
			name: "单个骷髅不中奖",
			grid: Grid{
				SymbolSkull, SymbolMap, SymbolSkull,
				SymbolMap, SymbolSkull, SymbolAnchor,
				SymbolCompass, SymbolMap, SymbolShip,
				SymbolTreasure, SymbolSkull, SymbolMap,
				SymbolShip, SymbolCompass, SymbolSkull,
			},
			wantLines:  0,
			wantPayout: 0,
		},
		{
			name: "全部不中奖",
			grid: Grid{
				SymbolMap, SymbolTreasure, SymbolShip,
				SymbolAnchor, SymbolCompass, SymbolMap,
				SymbolShip, SymbolMap, SymbolTreasure,
				SymbolCompass, SymbolAnchor, SymbolShip,
				SymbolMap, SymbolShip, SymbolAnchor,
			},
			wantLines:  0,
			wantPayout: 0,
		},
		{
			name: "五条全中",
			grid: Grid{
				SymbolSkull, SymbolSkull, SymbolSkull,
				SymbolSkull, SymbolSkull, SymbolTreasure,
				SymbolSkull, SymbolSkull, SymbolShip,
				SymbolSkull, SymbolSkull, SymbolAnchor,
				SymbolSkull, SymbolSkull, SymbolCompass,
			},
			wantLines:  5,
			wantPayout: 137,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := DecodeWinningLines(tt.grid)
			if len(lines) != tt.wantLines {
				t.Errorf("DecodeWinningLines() 返回%d条, 期望%d条", len(lines), tt.wantLines)
			}
			if payout := CalculatePayout(lines); payout != tt.wantPayout {
				t.Errorf("CalculatePayout() = %d, 期望%d", payout, tt.wantPayout)
			}
		})
	}
}

func TestDecodeWinningLines_LineIsolation(t *testing.T) {
	// 中奖线的判定只依赖本线的3个符号
	grid := Grid{
		SymbolMap, SymbolTreasure, SymbolShip,
		SymbolSkull, SymbolSkull, SymbolMap,
		SymbolShip, SymbolMap, SymbolTreasure,
		SymbolCompass, SymbolAnchor, SymbolShip,
		SymbolMap, SymbolShip, SymbolAnchor,
	}

	lines := DecodeWinningLines(grid)
	if len(lines) != 1 {
		t.Fatalf("期望1条中奖线, 实际%d条", len(lines))
	}
	if lines[0].Line != 2 {
		t.Errorf("中奖线号 = %d, 期望2", lines[0].Line)
	}
	if lines[0].Prize != Prize1 {
		t.Errorf("奖金 = %d, 期望1", lines[0].Prize)
	}
}

func TestGridLine(t *testing.T) {
	var grid Grid
	for i := range grid {
		grid[i] = allSymbols[i%len(allSymbols)]
	}

	for line := 0; line < LineCount; line++ {
		symbols := grid.Line(line)
		for offset := 0; offset < LineSize; offset++ {
			if symbols[offset] != grid[line*LineSize+offset] {
				t.Errorf("Line(%d)[%d] = %v, 期望 %v", line, offset, symbols[offset], grid[line*LineSize+offset])
			}
		}
	}
}

func TestSymbolTierMapping(t *testing.T) {
	// 奖级与符号映射必须互逆
	for _, tier := range AllTiers {
		symbol := SymbolForTier(tier)
		back, ok := PrizeForSymbol(symbol)
		if !ok {
			t.Errorf("PrizeForSymbol(%v) 未找到映射", symbol)
			continue
		}
		if back != tier {
			t.Errorf("映射不互逆: %d -> %v -> %d", tier, symbol, back)
		}
	}
}
