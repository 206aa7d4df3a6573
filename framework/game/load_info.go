package game

// LoadInfo 负载信息
// 用于计算 game 节点的综合负载评分
type LoadInfo struct {
	TableCount  int     // 当前桌数
	PlayerCount int     // 当前玩家数
	CPUUsage    float64 // CPU 使用率（0-100）
	MemUsage    float64 // 内存使用率（0-100）
}

// CalculateLoad 计算综合负载评分
// 权重：CPU 30%、内存 20%、桌数 25%、玩家数 25%，值越小越空闲
func (li *LoadInfo) CalculateLoad() float64 {
	normalizedTables := float64(li.TableCount) / 100.0
	if normalizedTables > 1.0 {
		normalizedTables = 1.0
	}
	normalizedPlayers := float64(li.PlayerCount) / 100.0
	if normalizedPlayers > 1.0 {
		normalizedPlayers = 1.0
	}

	return li.CPUUsage*0.3 + li.MemUsage*0.2 + normalizedTables*100*0.25 + normalizedPlayers*100*0.25
}
