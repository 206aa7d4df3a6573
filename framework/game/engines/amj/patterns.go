package amj

// DefaultPatterns 内置计分牌型
// 正式环境从配置加载整张牌谱，这里是内置兜底，覆盖常见结构
func DefaultPatterns() []*HandPattern {
	return []*HandPattern{
		{
			ID:          "any-like-numbers",
			Name:        "同数三门",
			AllowJokers: true,
			Sets: []PatternSet{
				{Kind: MeldPair, Class: TileClass{Kind: ClassDragons}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassSuited, Suit: SuitDots}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassSuited, Suit: SuitBams}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassSuited, Suit: SuitCraks}},
			},
		},
		{
			ID:          "evens-run",
			Name:        "双数一色",
			AllowJokers: true,
			Sets: []PatternSet{
				{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
				{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 6}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 8}},
			},
		},
		{
			ID:          "odds-two-suits",
			Name:        "单数双门",
			AllowJokers: true,
			Sets: []PatternSet{
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 1}},
				{Kind: MeldPung, Class: TileClass{Kind: ClassOdds, Suit: SuitBams}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassOdds, Suit: SuitBams}},
				{Kind: MeldQuint, Class: TileClass{Kind: ClassOdds, Suit: SuitCraks}},
			},
		},
		{
			ID:          "winds-dragons",
			Name:        "风箭大会",
			AllowJokers: true,
			Sets: []PatternSet{
				{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitWinds, Value: WindEast}},
				{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitWinds, Value: WindWest}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassDragons}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassDragons}},
			},
		},
		{
			ID:               "concealed-singles",
			Name:             "门清七对",
			AllowJokers:      false,
			RequireConcealed: true,
			Sets: []PatternSet{
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 1}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 3}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 5}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 7}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 9}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassDragons}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassWinds}},
			},
		},
		{
			ID:             "flower-quints",
			Name:           "花开五张",
			AllowJokers:    true,
			RequireFlowers: true,
			Sets: []PatternSet{
				{Kind: MeldPair, Class: TileClass{Kind: ClassSuited, Suit: SuitCraks}},
				{Kind: MeldQuint, Class: TileClass{Kind: ClassSuited, Suit: SuitDots}},
				{Kind: MeldQuint, Class: TileClass{Kind: ClassSuited, Suit: SuitBams}},
				{Kind: MeldPair, Class: TileClass{Kind: ClassDragons}},
			},
		},
	}
}
